package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"posh-assistant-backend/internal/auth"
	"posh-assistant-backend/internal/logging"
	"posh-assistant-backend/internal/sentiment"
	"posh-assistant-backend/internal/store"
	"posh-assistant-backend/internal/types"
)

const maxListLimit = 200

var categories = map[string]bool{
	"physical":            true,
	"verbal":              true,
	"non_verbal":          true,
	"quid_pro_quo":        true,
	"hostile_environment": true,
	"online":              true,
	"other":               true,
}

// latestUTCOffset is the furthest any local calendar date runs ahead of UTC.
const latestUTCOffset = 14 * time.Hour

// parseIncidentDate parses a YYYY-MM-DD date. It is future only when it comes
// after the latest local date anywhere, so reporters east of UTC can file for
// their own today.
func parseIncidentDate(v string, now time.Time) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, errors.New("incidentDate must be YYYY-MM-DD")
	}
	latest := now.UTC().Add(latestUTCOffset).Truncate(24 * time.Hour)
	if d.After(latest) {
		return time.Time{}, errors.New("incidentDate is in the future")
	}
	return d, nil
}

func (s *Server) handleCreateComplaint(w http.ResponseWriter, r *http.Request) {
	var req types.ComplaintRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if !categories[category] {
		s.writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	c := &store.Complaint{
		Category:      category,
		Description:   strings.TrimSpace(req.Description),
		Respondent:    strings.TrimSpace(req.Respondent),
		Anonymous:     req.Anonymous,
		ReporterEmail: strings.TrimSpace(req.ReporterEmail),
	}
	if req.IncidentDate != "" {
		d, err := parseIncidentDate(req.IncidentDate, time.Now())
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c.IncidentDate = &d
	}
	if c.Description == "" {
		s.writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	c.Sentiment = string(s.classifier.Classify(r.Context(), c.Description))

	if err := s.complaints.Create(r.Context(), c); err != nil {
		if errors.Is(err, store.ErrInvalid) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logging.ErrorLogger.Error("failed to save complaint", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to save complaint")
		return
	}

	fields := []zap.Field{
		zap.String("complaint_id", c.ID),
		zap.String("category", c.Category),
		zap.String("sentiment", c.Sentiment),
	}
	if c.Sentiment == string(sentiment.Distressed) {
		logging.AppLogger.Warn("distressed complaint submitted", fields...)
	} else {
		logging.AppLogger.Info("complaint submitted", fields...)
	}

	writeJSON(w, http.StatusCreated, types.ComplaintCreatedResponse{
		ID:        c.ID,
		Status:    c.Status,
		Sentiment: c.Sentiment,
	})
}

func (s *Server) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	f := store.ListFilter{Sentiment: r.URL.Query().Get("sentiment")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}
	if f.Limit == 0 || f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}

	list, err := s.complaints.List(r.Context(), f)
	if err != nil {
		logging.ErrorLogger.Error("failed to list complaints", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list complaints")
		return
	}
	logging.AppLogger.Info("complaints listed",
		zap.String("member", auth.MemberFrom(r.Context())), zap.Int("count", len(list)))
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetComplaint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.complaints.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "complaint not found")
		return
	}
	if err != nil {
		logging.ErrorLogger.Error("failed to get complaint", zap.String("complaint_id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to get complaint")
		return
	}
	logging.AppLogger.Info("complaint viewed",
		zap.String("member", auth.MemberFrom(r.Context())), zap.String("complaint_id", id))
	writeJSON(w, http.StatusOK, c)
}

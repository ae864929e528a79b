package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/logging"
	"posh-assistant-backend/internal/types"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	var req types.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	if err := llm.ValidateTranscript(req.Messages); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ChatTimeout)
	defer cancel()

	chunks := req.Context
	if chunks == nil {
		chunks = s.retrieveContext(ctx, llm.LastUserContent(req.Messages))
	}
	systemPrompt := s.assembler.Build(chunks)

	body, err := s.relay.Stream(ctx, req.Messages, systemPrompt)
	if err != nil {
		logging.ErrorLogger.Error("chat stream init failed",
			zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "chat stream init failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// client went away; closing body abandons the remote request
				return
			}
			flusher.Flush()
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// Headers are out; cut the connection so the client never sees [DONE].
			logging.ErrorLogger.Error("chat stream aborted",
				zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
			panic(http.ErrAbortHandler)
		}
	}
}

// retrieveContext returns nil, and so the default context, when retrieval is
// unavailable or fails.
func (s *Server) retrieveContext(ctx context.Context, query string) []string {
	if s.retriever == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	chunks, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		logging.AppLogger.Warn("context retrieval failed", zap.Error(err))
		return nil
	}
	return chunks
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req types.SentimentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	label := s.classifier.Classify(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, types.SentimentResponse{Sentiment: string(label)})
}

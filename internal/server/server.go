package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"posh-assistant-backend/internal/config"
	"posh-assistant-backend/internal/db"
	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/logging"
	"posh-assistant-backend/internal/prompt"
	"posh-assistant-backend/internal/relay"
	"posh-assistant-backend/internal/retrieval"
	"posh-assistant-backend/internal/sentiment"
	"posh-assistant-backend/internal/store"
	"posh-assistant-backend/internal/types"
)

// ContextRetriever supplies context passages for a user query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

type Server struct {
	router     *chi.Mux
	cfg        config.Config
	assembler  *prompt.Assembler
	relay      *relay.Relay
	classifier *sentiment.Classifier
	retriever  ContextRetriever // nil without an embedding provider
	complaints store.ComplaintStore
	database   *db.DB
}

// NewServer wires every component from cfg. Only a database that is
// configured but unreachable is fatal; a missing prompt file or a failed
// knowledge base index degrades to defaults.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	groq := llm.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL)

	tmpl, err := prompt.LoadTemplate(cfg.PromptFile)
	if err != nil {
		logging.AppLogger.Warn("using built-in prompt template", zap.String("file", cfg.PromptFile), zap.Error(err))
		tmpl = prompt.DefaultTemplate()
	}

	s := &Server{
		router:    chi.NewRouter(),
		cfg:       cfg,
		assembler: prompt.NewAssembler(tmpl),
		relay: relay.New(groq, relay.Options{
			Model:       cfg.ChatModel,
			Temperature: cfg.ChatTemp,
			MaxTokens:   cfg.ChatMaxTokens,
		}),
		classifier: sentiment.New(groq, cfg.SentimentModel, cfg.SentimentTimeout),
	}

	if cfg.GeminiAPIKey != "" {
		if r, err := newRetriever(ctx, cfg); err != nil {
			logging.ErrorLogger.Error("context retrieval disabled", zap.Error(err))
		} else {
			s.retriever = r
		}
	} else {
		logging.AppLogger.Warn("GEMINI_API_KEY not set, chat will use the default context")
	}

	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logging.AppLogger.Info("database connection established")
		s.database = database
		s.complaints = store.NewDatabaseStore(database)
	} else {
		logging.AppLogger.Warn("DB_URL not provided, complaints are kept in memory only")
		s.complaints = store.NewMemoryStore()
	}

	s.routes()
	return s, nil
}

func newRetriever(ctx context.Context, cfg config.Config) (*retrieval.Retriever, error) {
	passages, err := retrieval.LoadPassages(cfg.KnowledgeFile)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	gemini := llm.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
	r := retrieval.New(gemini, cfg.EmbeddingModel, passages, cfg.RetrievalTopK)
	if err := r.Index(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.RequestMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat/stream", s.handleChatStream)
	s.router.Post("/api/sentiment", s.handleSentiment)
	s.router.Post("/api/complaints", s.handleCreateComplaint)

	if s.cfg.JWTSecret == "" {
		logging.AppLogger.Warn("JWT_SECRET not set, committee routes are disabled")
		return
	}
	s.router.Group(func(r chi.Router) {
		r.Use(requireCommittee(s.cfg.JWTSecret))
		r.Get("/api/complaints", s.handleListComplaints)
		r.Get("/api/complaints/{id}", s.handleGetComplaint)
	})
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the database connection, if any.
func (s *Server) Close() error {
	if s.database != nil {
		return s.database.Close()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{Status: "ok", Retrieval: s.retriever != nil}
	code := http.StatusOK
	if s.database != nil {
		resp.Database = "ok"
		if err := s.database.HealthCheck(r.Context()); err != nil {
			logging.ErrorLogger.Error("database health check failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}

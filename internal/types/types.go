package types

import "posh-assistant-backend/internal/llm"

// ChatRequest is the body of POST /api/chat/stream. When Context is nil the
// server retrieves passages for the latest user message.
type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
	Context  []string      `json:"context,omitempty"`
}

type SentimentRequest struct {
	Text string `json:"text"`
}

type SentimentResponse struct {
	Sentiment string `json:"sentiment"`
}

// ComplaintRequest is the body of POST /api/complaints. IncidentDate uses
// YYYY-MM-DD.
type ComplaintRequest struct {
	Category      string `json:"category"`
	Description   string `json:"description"`
	Respondent    string `json:"respondent,omitempty"`
	IncidentDate  string `json:"incidentDate,omitempty"`
	Anonymous     bool   `json:"anonymous"`
	ReporterEmail string `json:"reporterEmail,omitempty"`
}

type ComplaintCreatedResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Sentiment string `json:"sentiment"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database,omitempty"`
	Retrieval bool   `json:"retrieval"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id" example:"chat_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

type Result struct {
	Status              string       `json:"status"`
	RAGExternalResponse *RAGResponse `json:"rag_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
	// set for ingest jobs, it is the handle DELETE /documents/{id} takes
	DocumentId string `json:"document_id,omitempty"`
}

type DocumentResponse struct {
	DocumentId   string    `json:"document_id" example:"9f2c41d3-6b1a-4c8e-9f0d-2a7b1c5e8f30"`
	OriginalName string    `json:"original_name" example:"hr-policy.txt"`
	ChunkCount   int       `json:"chunk_count" example:"12"`
	ProcessedAt  time.Time `json:"processed_at"`
}

type DocumentListResponse struct {
	Documents      []DocumentResponse `json:"documents"`
	TotalDocuments int                `json:"total_documents"`
	TotalChunks    int                `json:"total_chunks"`
}

// requests---------------------

type ChatRequest struct {
	Message string `json:"message" validate:"required" `
	ChatID  string `json:"chatID,omitempty" `
}
type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}

type IngestDocumentRequest struct {
	DocumentName string `json:"document_name" validate:"required"`
}

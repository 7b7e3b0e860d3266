package adapter

import (
	"fmt"
	"time"

	"github.com/skondray/pmcopilot/internal/api"
	"github.com/skondray/pmcopilot/internal/domain/jobModel"
	"github.com/skondray/pmcopilot/internal/rag/tracker"
)

func ToInitJobResponse(id string, documentId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:         id,
		StatusURL:  fmt.Sprintf("status/%s", id),
		DocumentId: documentId,
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(job.Status),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
		Sources:  ragData.Sources,
	}
}

func ToDocumentListResponse(records []tracker.DocumentRecord, stats tracker.Stats) api.DocumentListResponse {
	docs := make([]api.DocumentResponse, 0, len(records))
	for _, r := range records {
		docs = append(docs, api.DocumentResponse{
			DocumentId:   r.DocumentId,
			OriginalName: r.OriginalName,
			ChunkCount:   r.ChunkCount,
			ProcessedAt:  r.ProcessedAt,
		})
	}
	return api.DocumentListResponse{
		Documents:      docs,
		TotalDocuments: stats.TotalDocuments,
		TotalChunks:    stats.TotalChunks,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		ChatId:    "",
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status:              string(api.JobStatusError),
			RAGExternalResponse: ToRAGExternalStatus(jobModel.JobPayload{}),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

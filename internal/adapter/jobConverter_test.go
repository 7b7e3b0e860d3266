package adapter

import (
	"testing"

	"github.com/skondray/pmcopilot/internal/domain/jobModel"
)

func TestToInitJobResponse_IngestCarriesDocumentId(t *testing.T) {
	res := ToInitJobResponse("job-1", "doc-abc")

	if res.Id != "job-1" || res.StatusURL != "status/job-1" {
		t.Errorf("job fields wrong: %+v", res)
	}
	// the caller needs this handle for DELETE /documents/{id}
	if res.DocumentId != "doc-abc" {
		t.Errorf("DocumentId got %q, want doc-abc", res.DocumentId)
	}
}

func TestToInitJobResponse_ChatOmitsDocumentId(t *testing.T) {
	res := ToInitJobResponse("job-2", "")
	if res.DocumentId != "" {
		t.Errorf("chat jobs must not carry a document id, got %q", res.DocumentId)
	}
}

func TestToAPIResponse_ErrorMapping(t *testing.T) {
	job := jobModel.Job{
		Id:     "job-3",
		Status: jobModel.JobStatusError,
		Error: jobModel.JobError{
			Code:    500,
			Message: "Internal Server Error",
			Retry:   true,
		},
	}

	res := ToAPIResponse(job)
	if res.Error == nil {
		t.Fatal("error payload dropped")
	}
	if res.Error.Code != 500 || !res.Error.Retry {
		t.Errorf("error fields wrong: %+v", res.Error)
	}

	clean := ToAPIResponse(jobModel.Job{Id: "job-4", Status: jobModel.JobStatusComplete})
	if clean.Error != nil {
		t.Errorf("clean job carries an error payload: %+v", clean.Error)
	}
}

package driving

import (
	"context"
	"time"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

// JobState describes where an ingestion job is in the queue.
type JobState string

// Ingestion job states.
const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobError      JobState = "error"
)

// IngestRequest describes one "process this source" job.
type IngestRequest struct {
	// DocumentID is the canonicalised source path.
	DocumentID string

	// Name is the display name; defaults to the path base.
	Name string

	// Type is the source type or extension.
	Type string

	// Text is the extracted plain text.
	Text string

	// Metadata is attached to every produced chunk.
	Metadata map[string]any

	// Chunking configures splitting and embedding for this job.
	Chunking domain.ChunkingConfig
}

// JobStatus is the observable state of a queued job.
type JobStatus struct {
	ID         string
	DocumentID string
	State      JobState
	ChunkCount int
	Error      string
	EnqueuedAt time.Time
	FinishedAt time.Time
}

// IngestService sequences source text into stored, embedded chunks.
type IngestService interface {
	// Ingest processes the request synchronously and returns the
	// number of chunks written. Re-ingesting a document id replaces
	// its chunks wholesale.
	Ingest(ctx context.Context, req IngestRequest) (int, error)

	// Enqueue adds a job to the FIFO queue and returns its id.
	Enqueue(req IngestRequest) (string, error)

	// JobStatus returns the state of a queued job.
	JobStatus(id string) (*JobStatus, error)

	// Jobs returns the status of every known job, oldest first.
	Jobs() []JobStatus

	// RemoveDocument deletes a document and all of its chunks.
	RemoveDocument(ctx context.Context, documentID string) error

	// RemoveAllDocuments clears the store.
	RemoveAllDocuments(ctx context.Context) error
}

package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driving"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
)

// DefaultQueueCapacity bounds the pending ingestion queue.
const DefaultQueueCapacity = 128

type queuedJob struct {
	id  string
	req driving.IngestRequest
}

// IngestService sequences document text into stored, embedded chunks.
// A single background worker drains a FIFO queue, so writes for
// different documents never interleave.
type IngestService struct {
	store     driven.VectorStore
	processor *DocumentProcessor
	now       func() time.Time

	queue  chan queuedJob
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	jobs   map[string]*driving.JobStatus
	order  []string
	closed bool
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithQueueCapacity sets the pending queue capacity.
func WithQueueCapacity(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.queue = make(chan queuedJob, n)
		}
	}
}

// WithIngestClock overrides the time source. Used in tests.
func WithIngestClock(now func() time.Time) IngestOption {
	return func(s *IngestService) { s.now = now }
}

// NewIngestService creates an ingestion service. Call Start to run the
// queue worker; synchronous Ingest works without it.
func NewIngestService(store driven.VectorStore, processor *DocumentProcessor, opts ...IngestOption) *IngestService {
	s := &IngestService{
		store:     store,
		processor: processor,
		now:       time.Now,
		queue:     make(chan queuedJob, DefaultQueueCapacity),
		stopCh:    make(chan struct{}),
		jobs:      make(map[string]*driving.JobStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the single queue worker.
func (s *IngestService) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Stop closes the queue and waits for the worker to finish any job in
// flight. Pending jobs still in the queue are drained before return.
func (s *IngestService) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

func (s *IngestService) worker() {
	defer s.wg.Done()
	for {
		select {
		case job := <-s.queue:
			s.runJob(job)
		case <-s.stopCh:
			// Drain whatever was enqueued before shutdown.
			for {
				select {
				case job := <-s.queue:
					s.runJob(job)
				default:
					return
				}
			}
		}
	}
}

func (s *IngestService) runJob(job queuedJob) {
	ctx := context.Background()
	s.setJobState(job.id, driving.JobProcessing, 0, nil)
	s.markDocument(ctx, job.req, domain.StatusProcessing)

	count, err := s.Ingest(ctx, job.req)
	if err != nil {
		logger.Warn("Ingestion job %s failed: %v", job.id, err)
		s.setJobState(job.id, driving.JobError, 0, err)
		s.markDocument(ctx, job.req, domain.StatusError)
		return
	}
	s.setJobState(job.id, driving.JobCompleted, count, nil)
}

// markDocument records a queued document's lifecycle state on its row,
// so `document list` reflects jobs in flight. Successful ingestion
// overwrites the row with the final completed document.
func (s *IngestService) markDocument(ctx context.Context, req driving.IngestRequest, status domain.DocumentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markDocumentLocked(ctx, req, status)
}

// markDocumentLocked requires s.mu. Holding the lock across the write
// orders the enqueue-time pending mark before the worker's processing
// mark for the same job.
func (s *IngestService) markDocumentLocked(ctx context.Context, req driving.IngestRequest, status domain.DocumentStatus) {
	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		return
	}

	now := s.now()
	doc := domain.Document{
		ID:         id,
		Name:       req.Name,
		Type:       req.Type,
		SizeBytes:  int64(len(req.Text)),
		Status:     status,
		IngestedAt: now,
		UpdatedAt:  now,
	}
	if doc.Name == "" {
		doc.Name = filepath.Base(id)
	}
	if existing, err := s.store.GetDocument(ctx, id); err == nil {
		doc.IngestedAt = existing.IngestedAt
	}
	if err := s.store.SaveDocument(ctx, &doc); err != nil {
		logger.Warn("Marking document %s as %s failed: %v", id, status, err)
	}
}

func (s *IngestService) setJobState(id string, state driving.JobState, chunkCount int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.jobs[id]
	if !ok {
		return
	}
	status.State = state
	status.ChunkCount = chunkCount
	if err != nil {
		status.Error = err.Error()
	}
	if state == driving.JobCompleted || state == driving.JobError {
		status.FinishedAt = s.now()
	}
}

// Ingest processes the request synchronously: validate, chunk and
// embed, then write the document and its chunks in one transaction.
// Re-ingesting a document id replaces its chunks wholesale.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (int, error) {
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	if req.DocumentID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return 0, fmt.Errorf("%w: document text is empty", domain.ErrInvalidInput)
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(req.DocumentID)
	}

	cfg := req.Chunking
	if cfg == (domain.ChunkingConfig{}) {
		cfg = domain.DefaultChunkingConfig()
	}

	chunks, err := s.processor.Process(ctx, req.DocumentID, req.Text, req.Metadata, cfg)
	if err != nil {
		return 0, fmt.Errorf("processing document %s: %w", req.DocumentID, err)
	}

	now := s.now()
	doc := domain.Document{
		ID:         req.DocumentID,
		Name:       name,
		Type:       req.Type,
		SizeBytes:  int64(len(req.Text)),
		Status:     domain.StatusCompleted,
		IngestedAt: now,
		UpdatedAt:  now,
	}

	// Re-ingestion keeps the original ingestion timestamp.
	existing, err := s.store.GetDocument(ctx, req.DocumentID)
	if err == nil {
		doc.IngestedAt = existing.IngestedAt
	}

	if err := s.store.SaveDocumentWithChunks(ctx, &doc, chunks); err != nil {
		return 0, fmt.Errorf("storing document %s: %w", req.DocumentID, err)
	}

	logger.Info("Ingested %s: %d chunks (%d bytes)", req.DocumentID, len(chunks), doc.SizeBytes)
	return len(chunks), nil
}

// Enqueue adds a job to the FIFO queue and returns its id. The target
// document row is marked pending so list output reflects queued work.
func (s *IngestService) Enqueue(req driving.IngestRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", domain.ErrQueueClosed
	}

	id := uuid.New().String()
	status := &driving.JobStatus{
		ID:         id,
		DocumentID: req.DocumentID,
		State:      driving.JobPending,
		EnqueuedAt: s.now(),
	}
	s.jobs[id] = status
	s.order = append(s.order, id)

	select {
	case s.queue <- queuedJob{id: id, req: req}:
	default:
		delete(s.jobs, id)
		s.order = s.order[:len(s.order)-1]
		return "", fmt.Errorf("%w: ingestion queue is full", domain.ErrInvalidInput)
	}

	s.markDocumentLocked(context.Background(), req, domain.StatusPending)
	return id, nil
}

// JobStatus returns the state of a queued job.
func (s *IngestService) JobStatus(id string) (*driving.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	out := *status
	return &out, nil
}

// Jobs returns the status of every known job, oldest first.
func (s *IngestService) Jobs() []driving.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]driving.JobStatus, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.jobs[id])
	}
	return out
}

// RemoveDocument deletes a document and all of its chunks.
func (s *IngestService) RemoveDocument(ctx context.Context, documentID string) error {
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("removing document %s: %w", documentID, err)
	}
	logger.Info("Removed document %s", documentID)
	return nil
}

// RemoveAllDocuments clears the store.
func (s *IngestService) RemoveAllDocuments(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	logger.Info("Removed all documents")
	return nil
}

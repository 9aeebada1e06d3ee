package cli

import (
	"context"
	"time"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driving"
)

// stubSearchService returns canned results.
type stubSearchService struct {
	results []domain.SearchResult
	err     error
}

func (s *stubSearchService) Search(
	_ context.Context, _ string, _ []float32, _ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return s.results, s.err
}

// stubIngestService records calls and returns canned values.
type stubIngestService struct {
	ingested  []driving.IngestRequest
	enqueued  []driving.IngestRequest
	removed   []string
	cleared   bool
	jobs      []driving.JobStatus
	chunkN    int
	ingestErr error
}

func (s *stubIngestService) Ingest(_ context.Context, req driving.IngestRequest) (int, error) {
	if s.ingestErr != nil {
		return 0, s.ingestErr
	}
	s.ingested = append(s.ingested, req)
	return s.chunkN, nil
}

func (s *stubIngestService) Enqueue(req driving.IngestRequest) (string, error) {
	s.enqueued = append(s.enqueued, req)
	return "job-1", nil
}

func (s *stubIngestService) JobStatus(id string) (*driving.JobStatus, error) {
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			return &s.jobs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubIngestService) Jobs() []driving.JobStatus {
	return s.jobs
}

func (s *stubIngestService) RemoveDocument(_ context.Context, documentID string) error {
	s.removed = append(s.removed, documentID)
	return nil
}

func (s *stubIngestService) RemoveAllDocuments(_ context.Context) error {
	s.cleared = true
	return nil
}

// stubDocumentService serves a fixed document set.
type stubDocumentService struct {
	docs   []domain.Document
	chunks []domain.Chunk
	stats  domain.StoreStats
}

func (s *stubDocumentService) GetDocuments(_ context.Context) ([]domain.Document, error) {
	return s.docs, nil
}

func (s *stubDocumentService) GetDocumentChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubDocumentService) GetChunk(_ context.Context, chunkID string) (*domain.Chunk, error) {
	for i := range s.chunks {
		if s.chunks[i].ID == chunkID {
			return &s.chunks[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubDocumentService) GetContent(_ context.Context, documentID string) (string, error) {
	chunks, _ := s.GetDocumentChunks(context.Background(), documentID)
	content := ""
	for i, c := range chunks {
		if i > 0 {
			content += "\n"
		}
		content += c.Content
	}
	return content, nil
}

func (s *stubDocumentService) GetStats(_ context.Context) (*domain.StoreStats, error) {
	stats := s.stats
	return &stats, nil
}

// setupTestServices installs stub services and returns a cleanup that
// restores the previous ones.
func setupTestServices() func() {
	oldSearch := searchService
	oldIngest := ingestService
	oldDocument := documentService

	searchService = &stubSearchService{
		results: []domain.SearchResult{
			{
				ChunkID:    "chunk-1",
				DocumentID: "/docs/notes.txt",
				Score:      0.87,
				Algorithm:  domain.AlgorithmHybrid,
				Content:    "the cat sat on the mat",
			},
		},
	}
	ingestService = &stubIngestService{chunkN: 3}
	documentService = &stubDocumentService{
		docs: []domain.Document{
			{
				ID:         "/docs/notes.txt",
				Name:       "notes.txt",
				Type:       "txt",
				SizeBytes:  22,
				Status:     domain.StatusCompleted,
				IngestedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		chunks: []domain.Chunk{
			{ID: "chunk-1", DocumentID: "/docs/notes.txt", Content: "the cat sat", Position: 0},
			{ID: "chunk-2", DocumentID: "/docs/notes.txt", Content: "on the mat", Position: 1},
		},
		stats: domain.StoreStats{DocumentCount: 1, ChunkCount: 2, TotalBytes: 22},
	}

	return func() {
		searchService = oldSearch
		ingestService = oldIngest
		documentService = oldDocument
	}
}

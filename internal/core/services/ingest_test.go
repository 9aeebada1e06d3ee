package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driving"
)

func setupIngestService(t *testing.T) *IngestService {
	t.Helper()

	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	return svc
}

func TestIngest_StoresDocumentAndChunks(t *testing.T) {
	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	ctx := context.Background()

	count, err := svc.Ingest(ctx, driving.IngestRequest{
		DocumentID: "/docs/notes.txt",
		Type:       "txt",
		Text:       "The cat sat on the mat. The dog ran in the park.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	doc, err := store.GetDocument(ctx, "/docs/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, int64(48), doc.SizeBytes)

	chunks, err := store.GetChunks(ctx, "/docs/notes.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.NotEmpty(t, chunks[0].Embedding)
}

func TestIngest_ValidatesRequest(t *testing.T) {
	svc := setupIngestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, driving.IngestRequest{Text: "hello"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ingest(ctx, driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "   "})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ingest(ctx, driving.IngestRequest{
		DocumentID: "/docs/a.txt",
		Text:       "hello",
		Chunking:   domain.ChunkingConfig{ChunkSize: 100, Overlap: 100},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_ReingestReplacesChunks(t *testing.T) {
	store := setupStore(t)

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	clock := base
	svc := NewIngestService(store, NewDocumentProcessor(nil),
		WithIngestClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, err := svc.Ingest(ctx, driving.IngestRequest{
		DocumentID: "/docs/a.txt",
		Text:       "First version of the text.",
	})
	require.NoError(t, err)

	clock = base.AddDate(0, 0, 3)
	_, err = svc.Ingest(ctx, driving.IngestRequest{
		DocumentID: "/docs/a.txt",
		Text:       "Second version, fully rewritten.",
	})
	require.NoError(t, err)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// First ingestion timestamp survives; the update timestamp moves.
	assert.Equal(t, base, docs[0].IngestedAt.UTC())
	assert.Equal(t, base.AddDate(0, 0, 3), docs[0].UpdatedAt.UTC())

	chunks, err := store.GetChunks(ctx, "/docs/a.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Second version")
}

func TestIngest_WritesInvalidateTermIndex(t *testing.T) {
	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	search := NewSearchService(store, nil)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, driving.IngestRequest{
		DocumentID: "/docs/a.txt",
		Text:       "the cat sat",
	})
	require.NoError(t, err)

	// A search builds and persists the term index.
	_, err = search.Search(ctx, "cat", nil, domain.SearchOptions{Algorithm: domain.AlgorithmBM25})
	require.NoError(t, err)
	_, ok, err := store.TermIndex(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Any write makes the cached index stale.
	_, err = svc.Ingest(ctx, driving.IngestRequest{
		DocumentID: "/docs/b.txt",
		Text:       "the dog ran",
	})
	require.NoError(t, err)

	_, ok, err = store.TermIndex(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// The next search rebuilds it over the new corpus.
	results, err := search.Search(ctx, "dog", nil, domain.SearchOptions{Algorithm: domain.AlgorithmBM25})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/b.txt", results[0].DocumentID)
}

func TestIngest_QueueProcessesFIFO(t *testing.T) {
	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	svc.Start()

	id1, err := svc.Enqueue(driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "cat sat"})
	require.NoError(t, err)
	id2, err := svc.Enqueue(driving.IngestRequest{DocumentID: "/docs/b.txt", Text: "dog ran"})
	require.NoError(t, err)

	svc.Stop()

	for _, id := range []string{id1, id2} {
		status, err := svc.JobStatus(id)
		require.NoError(t, err)
		assert.Equal(t, driving.JobCompleted, status.State)
		assert.Equal(t, 1, status.ChunkCount)
		assert.False(t, status.FinishedAt.IsZero())
	}

	jobs := svc.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, id1, jobs[0].ID)
	assert.Equal(t, id2, jobs[1].ID)

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestIngest_QueueFailureMarksJobErrored(t *testing.T) {
	svc := setupIngestService(t)
	svc.Start()

	id, err := svc.Enqueue(driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "   "})
	require.NoError(t, err)
	svc.Stop()

	status, err := svc.JobStatus(id)
	require.NoError(t, err)
	assert.Equal(t, driving.JobError, status.State)
	assert.NotEmpty(t, status.Error)
}

func TestIngest_QueuedDocumentRowFollowsLifecycle(t *testing.T) {
	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	ctx := context.Background()

	// Worker not started yet: the enqueue leaves the row pending.
	_, err := svc.Enqueue(driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "cat sat"})
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, doc.Status)

	svc.Start()
	svc.Stop()

	doc, err = store.GetDocument(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
}

func TestIngest_FailedJobMarksDocumentErrored(t *testing.T) {
	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	svc.Start()

	_, err := svc.Enqueue(driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "   "})
	require.NoError(t, err)
	svc.Stop()

	doc, err := store.GetDocument(context.Background(), "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)

	chunks, err := store.GetChunks(context.Background(), "/docs/a.txt")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIngest_EnqueueAfterStop(t *testing.T) {
	svc := setupIngestService(t)
	svc.Start()
	svc.Stop()

	_, err := svc.Enqueue(driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "cat"})
	require.ErrorIs(t, err, domain.ErrQueueClosed)
}

func TestIngest_JobStatusUnknown(t *testing.T) {
	svc := setupIngestService(t)

	_, err := svc.JobStatus("no-such-job")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_RemoveDocument(t *testing.T) {
	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	ctx := context.Background()

	_, err := svc.Ingest(ctx, driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "cat sat"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveDocument(ctx, "/docs/a.txt"))

	_, err = store.GetDocument(ctx, "/docs/a.txt")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.RemoveDocument(ctx, "/docs/a.txt")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_RemoveAllDocuments(t *testing.T) {
	store := setupStore(t)
	svc := NewIngestService(store, NewDocumentProcessor(nil))
	ctx := context.Background()

	_, err := svc.Ingest(ctx, driving.IngestRequest{DocumentID: "/docs/a.txt", Text: "cat sat"})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, driving.IngestRequest{DocumentID: "/docs/b.txt", Text: "dog ran"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveAllDocuments(ctx))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

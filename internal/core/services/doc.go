// Package services implements the core use cases of the retrieval
// engine: the ranking engine (BM25, TF-IDF, vector cosine, hybrid
// fusion, each with an in-memory and a streaming form), the document
// processor that turns raw text into embedded chunks, the ingestion
// orchestrator with its FIFO job queue, and read-only document queries.
package services

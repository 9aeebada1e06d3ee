// Package domain contains the core business entities and value types
// for the retrieval engine: documents, chunks, search configuration,
// the derived term index, and the sentinel errors shared by all layers.
package domain

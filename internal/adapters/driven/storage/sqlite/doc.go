// Package sqlite implements the VectorStore port on an embedded SQLite
// database. Documents and chunks live in two related tables; the
// derived document-frequency cache lives in a table pair guarded by a
// persistent generation counter that every chunk-mutating write bumps.
package sqlite

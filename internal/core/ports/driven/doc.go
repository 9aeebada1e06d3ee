// Package driven defines the outbound ports: interfaces the core
// services require from infrastructure adapters (storage, embedding,
// configuration). Adapters implement these; services depend on them.
package driven

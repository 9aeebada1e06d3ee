// Package driving defines the inbound ports: the use-case interfaces
// the core services expose to callers such as the CLI.
package driving

// Package ports defines the interfaces that connect the application layer
// to infrastructure adapters.
//
// # Port Interfaces
//
//   - [BatchSource]: yields fetched chunks in acquisition order
//   - [BatchStore]: saves and lists batches (chunk files, sqlite)
//   - [StateRepository]: persists reconstruction progress
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with the file system, sqlite
// and zerolog.
package ports

// Package log provides the logging abstraction used across patchview.
//
// The Logger interface keeps the series pipeline and its adapters free of a
// concrete logging library. A zerolog implementation and a no-op logger for
// tests are provided.
//
//	logger := log.New(log.Options{Level: "debug"})
//	logger.Info("assembled series", log.Int("records", n))
package log

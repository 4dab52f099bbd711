package ports

import "github.com/bft-labs/patchview/pkg/log"

// Logger is the structured logger used by the application layer.
type Logger = log.Logger

// Field is a structured logging key-value pair.
type Field = log.Field

// Field constructors re-exported for the application layer.
var (
	String = log.String
	Int    = log.Int
	Int64  = log.Int64
	Bool   = log.Bool
	Err    = log.Err
	Millis = log.Millis
	Any    = log.Any

	Duration = log.Duration
)

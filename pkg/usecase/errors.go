package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrEmbedderNotConfigured = goerr.New("embedder is not configured")
	ErrSlugConflict          = goerr.New("another tag already uses this slug")
	ErrInvalidDeleteMode     = goerr.New("invalid memory delete mode")
)

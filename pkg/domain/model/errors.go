package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by repositories and use cases
var (
	ErrNotFound            = goerr.New("not found")
	ErrUnauthorized        = goerr.New("unauthorized")
	ErrEmbeddingGeneration = goerr.New("embedding generation failed")
	ErrPartialCascade      = goerr.New("cascade deletion partially applied")
	ErrInvalidArgument     = goerr.New("invalid argument")
)

package app

import (
	"errors"

	"career-constellation/internal/ingest"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotInitialized  = errors.New("rag service not initialized")
	ErrJobNotFound     = errors.New("job not found")
	ErrClusterNotFound = errors.New("cluster not found")
	ErrReportNotFound  = ingest.ErrReportNotFound
	ErrMessageEnqueue  = errors.New("message enqueue failed")
)

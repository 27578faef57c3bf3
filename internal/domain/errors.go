package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("schema validation failed")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrGeneration   = errors.New("generation failed")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrContextDone  = errors.New("context cancelled")
)

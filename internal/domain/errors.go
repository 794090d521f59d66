// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a request that contradicts persisted state, such as
// a status update for an order that was never created.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates a malformed or incomplete payload.
var ErrValidation = errors.New("validation failed")

// ErrUnauthorized indicates a webhook request that failed credential checks.
// Callers only ever see this generic form; which check failed is logged
// internally and never leaks to the response.
var ErrUnauthorized = errors.New("invalid webhook credentials")

// Package errors provides structured error types shared across the service.
//
// Domain packages return their own sentinel errors for expected business
// outcomes (wrong password, expired token, duplicate email). This package
// carries the error-code taxonomy the HTTP layer uses to translate those
// outcomes into responses, plus a structured Error type for wrapping
// store-level faults.
package errors

// Package errors defines error types for the server host.
//
// This package provides structured error types for each stage of bringing up
// an external server: endpoint allocation, process launch, and connection
// rendezvous. All error types support error unwrapping and can be checked
// using errors.Is, errors.As, and errors.AsType.
package errors

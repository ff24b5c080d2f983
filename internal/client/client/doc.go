// Package client is the caller side of the passvault request channel.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) with one
//     typed method per vault operation.
//  2. A concrete gRPC implementation (see GRPCClient) that sends every
//     request through the single Dispatch method, injects the channel access
//     token via an interceptor, and maps gRPC status codes to sentinel errors.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized. Requests the vault rejects
// come back as *RejectedError carrying the vault's message.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. Every call honors the context and
// the configured request timeout.
package client

// Package api is the HTTP client for the Lenscap captioning backend.
//
// It owns the wire contract: request construction, bearer injection, the
// per-call timeout budget, and the mapping from transport and status failures
// onto the shared error taxonomy. Nothing above this package inspects HTTP
// status codes directly.
package api

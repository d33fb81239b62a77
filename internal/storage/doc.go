// Package storage provides the small key-value persistence layer behind
// session state and gallery view preferences.
//
// The Store interface is deliberately narrow so callers can be handed an
// in-memory implementation in tests. The file-backed implementation guards
// its JSON state file with a flock so concurrent lenscap invocations cannot
// interleave partial writes.
package storage

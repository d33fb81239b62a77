// Package main hosts the Lenscap CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into backend
// API calls, session management, bulk uploads with analysis polling, and
// local gallery browsing. It centralizes configuration resolution, session
// wiring, and structured logging setup so subcommands can focus on user
// experience instead of plumbing.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

// Package launcher spawns and supervises the external server process.
//
// This package locates the server executable, builds its argument list and
// environment from the allocated endpoint, and starts it as a child process.
// Each child exposes an exit future that resolves exactly once, a bounded
// stderr buffer for error reports, graceful-then-forceful termination, and
// resource statistics.
//
// # Discovery
//
// The Discoverer resolves the configured executable:
//  1. Values containing a path separator are used as-is if they exist
//  2. The system PATH
//  3. Config.SearchPaths, in order
//
// # Command Building
//
//	args := launcher.BuildArgs(cfg, endpoint, token)
//	env := launcher.BuildEnvironment(cfg, endpoint, token)
package launcher

// Package testutil provides helpers for tests that launch a real server
// process.
package testutil

// Package session implements the server session lifecycle.
//
// A Supervisor owns one session at a time and drives it through
// Stopped → Starting → Running → Stopped. Starting binds the endpoint,
// launches the server and waits for its connection; the launch and the
// wait run concurrently and the first failure cancels the other. The
// supervisor releases every resource on failure, so a failed start never
// leaves a bound socket or an orphaned process behind.
//
// State change events are delivered synchronously and in transition order.
// Observers run on the goroutine that caused the transition. An observer may
// query the supervisor and may call Stop from a Running event. Stop called
// synchronously from a Starting event waits for a start that cannot finish
// until the observer returns, so it blocks until its context is done.
//
// Only one goroutine delivers events at a time. A transition made while
// another goroutine is delivering is queued and delivered by that goroutine,
// so the call that made it may return first. In particular Start may return
// before its Running event is delivered, and Transport stays nil until then.
package session

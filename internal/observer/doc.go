// Package observer provides ordered, synchronous observer registries with
// disposable subscriptions.
package observer

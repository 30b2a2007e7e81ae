// Package service implements the application's use cases on top of the
// store interfaces: requesting flower generation, polling and retrying
// tasks, listing the garden, and the focus session lifecycle.
package service

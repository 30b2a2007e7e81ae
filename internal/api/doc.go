// Package api contains the HTTP handlers for the flower and focus
// session endpoints.
package api

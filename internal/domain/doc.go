// Package domain defines the core business entities of the Zen Garden
// service: users, focus sessions, flowers, and the flower-generation
// tasks that tie them together. Entities carry their own validation and
// state-transition rules; persistence lives in internal/store.
package domain

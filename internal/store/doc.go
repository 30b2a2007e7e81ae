// Package store defines the persistence interfaces consumed by the
// service and task layers, together with shared database plumbing: the
// DBTX abstraction over *sql.DB / *sql.Tx, the transaction runner, and
// the sentinel errors implementations map database failures onto.
package store

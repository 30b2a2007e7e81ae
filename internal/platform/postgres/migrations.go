package postgres

import "embed"

// Migrations holds the goose SQL migrations, embedded so the server
// binary can apply them without access to the source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

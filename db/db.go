// Package db embeds the SQL migrations applied by internal/db.Migrate.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

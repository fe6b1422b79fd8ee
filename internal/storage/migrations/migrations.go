// Package migrations embeds the schema of the local SQLite tier.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

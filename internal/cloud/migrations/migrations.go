// Package migrations embeds the cloud database schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

// Package migrations embeds the device store schema for golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

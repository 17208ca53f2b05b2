// Package migrations embeds the provider schema for golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

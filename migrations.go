// Package subhunt holds assets shared by the subhunt binary and its tests.
package subhunt

import "embed"

// Migrations contains the goose SQL migrations for the inventory database.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Package migrations embeds the gateway's goose SQL migrations, the
// same embed.FS + goose.SetBaseFS wiring the teacher uses for its
// migration runner (internal/db/migrations in the teacher's sibling
// package).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

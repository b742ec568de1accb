// Package migrations embeds the goose SQL files for the postgres session store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

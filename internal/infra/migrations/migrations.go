// Package migrations embeds the SQL schema of the host ledger.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

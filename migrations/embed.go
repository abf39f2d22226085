// Package migrations holds the versioned SQL schema, named NNN_description.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

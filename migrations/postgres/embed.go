// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contiene las migraciones de postgres, en orden por versión.
// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql)
//
//go:embed *.sql
var FS embed.FS

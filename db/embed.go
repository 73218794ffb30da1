// Package db embeds the SQL schema so the store can apply it on startup
// without shipping migration files alongside the binary.
package db

import _ "embed"

// Schema holds the DDL for every table, index, and enum the store expects.
//
//go:embed migrations/001_schema.sql
var Schema string

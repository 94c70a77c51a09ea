// Package db provides the embedded storage schema and the default catalog
// document.
package db

import _ "embed"

// Schema contains the DDL for the PostgreSQL storage backend.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog is the catalog document served when no catalog path or URL is
// configured.
//
//go:embed seed/catalog.json
var Catalog []byte

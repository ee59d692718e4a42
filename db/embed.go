// Package db provides the embedded database schema and seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Pizzas is the default menu loaded by seed-db when no file is given.
//
//go:embed seed/pizzas.json
var Pizzas []byte

// Package db carries the embedded SQLite schema.
package db

import _ "embed"

//go:embed schema.sql
var Schema []byte

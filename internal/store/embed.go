package store

import _ "embed"

// Schema is the idempotent DDL for the profile store. Every statement uses
// IF NOT EXISTS so it is safe to run on every boot.
//
//go:embed schema.sql
var Schema string

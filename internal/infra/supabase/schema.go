package supabase

import _ "embed"

// Schema is the SQL that provisions the documents table and the functions
// the client calls. Printed by `bootstrap-admin -print-schema`.
//
//go:embed schema.sql
var Schema string

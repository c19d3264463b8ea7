// Package postgres implements the store using pgx/v5 with raw SQL.
// Features: checkpoint compare-and-swap updates, JSONB instance data
// and history, embedded SQL migrations.
package postgres

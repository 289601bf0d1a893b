// Package migrations provides SQL migration generation for the tournament runtime tables.
// It generates the tournaments and tournament entries schema for PostgreSQL, MySQL/MariaDB,
// and SQLite databases, and exposes the rendered SQL for stores that bootstrap their own schema.
package migrations

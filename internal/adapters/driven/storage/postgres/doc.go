// Package postgres implements driven.IndexStore on PostgreSQL with pgvector.
//
// Connections go through the pgx database/sql driver. Chunk embeddings are
// stored in a vector column and metadata as jsonb, so the same tables can
// serve similarity search from other tools. The schema is created by an
// embedded bootstrap script the first time a database is opened.
package postgres

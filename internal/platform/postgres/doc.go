// Package postgres provides PostgreSQL implementations of the store interfaces
// for topics, words and sentences, and of the task store used by the
// background runner. It maps driver errors onto store errors and embeds the
// goose migrations that create the schema.
package postgres

// Package store defines the persistence contracts for topics, words and
// sentences, the errors every implementation maps its failures onto, and the
// transaction helper shared by them.
package store

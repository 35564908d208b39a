// Package topicgen fills a topic with vocabulary and graded example sentences.
//
// An Orchestrator run claims the topic, asks the word list service for the
// missing words, persists them, and then generates one sentence triple per
// word with bounded concurrency. Every triple passes a per-run novelty filter;
// a rejected triple is retried with different sampling settings and steering
// hints, and the final attempt is accepted regardless. A word that never gets
// a usable triple is deleted, so a topic never holds words without sentences
// once a run completes. Progress counters are written to the topic record at
// a throttled rate.
//
// Runs are resumable: an interrupted run leaves the topic in the generating
// status and the next run derives what is missing from persisted state.
package topicgen

// Package novelty decides whether generated example sentences are fresh
// enough to keep.
//
// A Filter holds the state of one generation run: bounded FIFO windows of
// recent sentence openers and pattern prefixes, plus the bigram sets of every
// sentence accepted so far. Two sentences are near-duplicates when the Jaccard
// similarity of their character bigram sets exceeds 0.7.
package novelty

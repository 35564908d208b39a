// Package domain contains the core business entities, value objects, and
// domain logic of the application: topics (the learning units a generation
// run populates), their vocabulary words, and the graded example sentences
// attached to each word. It is independent of any specific infrastructure or
// delivery mechanism.
package domain

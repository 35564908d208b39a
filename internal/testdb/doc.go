// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests using it are skipped unless CIZU_TEST_DATABASE_URL or DATABASE_URL
// is set. The schema is brought up to date with the embedded migrations the
// first time a connection is requested, and each test body runs inside a
// transaction that is rolled back when it returns:
//
//	func TestTopicClaim(t *testing.T) {
//		db := testdb.GetTestDB(t)
//		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//			topics := postgres.NewPostgresTopicStore(tx, logger.Discard())
//			// ...
//		})
//	}
package testdb

// Package mocks provides shared test doubles: a scripted generation provider
// and in-memory topic, word and sentence stores that enforce the same
// uniqueness and parent rules as the database.
//
// Each mock exposes Fn fields that replace the default behavior when set, and
// records calls for later assertions:
//
//	gen := &mocks.MockGenerator{
//	    GenerateWordListFn: func(ctx context.Context, req generation.WordListRequest) ([]domain.WordCandidate, error) {
//	        return nil, generation.ErrGenerationFailed
//	    },
//	}
package mocks

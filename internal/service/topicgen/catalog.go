package topicgen

import (
	"math/rand/v2"

	"github.com/phrazzld/cizu-api/internal/domain"
)

// styleCatalog lists the registers a sentence can be written in.
var styleCatalog = []string{
	"plain statement",
	"question",
	domain.StyleChatReply,
	"dialogue line",
	"exclamation",
	"instruction",
	"diary entry",
	"description",
}

// contextCatalog lists everyday situations sentences can be set in.
var contextCatalog = []string{
	"at home",
	"at school",
	"at work",
	"shopping",
	"travelling",
	"eating out",
	"with friends",
	"on the phone",
	"at the doctor",
	"on social media",
	"in the park",
	"on public transport",
}

// Flavor counts chosen per word.
const (
	minStyles   = 2
	maxStyles   = 3
	minContexts = 1
	maxContexts = 2
)

// picker chooses flavor hints for a word. Implementations must be safe for
// concurrent use.
type picker interface {
	IntN(n int) int
	Perm(n int) []int
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Perm(n int) []int { return rand.Perm(n) }

// pickFlavors returns 2 or 3 distinct styles and 1 or 2 distinct contexts.
func pickFlavors(p picker) (styles, contexts []string) {
	return pickN(p, styleCatalog, minStyles, maxStyles),
		pickN(p, contextCatalog, minContexts, maxContexts)
}

func pickN(p picker, catalog []string, lo, hi int) []string {
	n := lo + p.IntN(hi-lo+1)
	perm := p.Perm(len(catalog))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, catalog[idx])
	}
	return out
}

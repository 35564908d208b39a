package domain

import (
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
)

// grammarCatalog lists grammar patterns appropriate to each level.
var grammarCatalog = map[string][]string{
	"HSK1": {
		"是 sentences",
		"吗 questions",
		"不 negation",
		"的 possession",
		"很 + adjective",
		"在 location",
		"有 possession",
	},
	"HSK2": {
		"了 completed action",
		"过 experience",
		"正在 ongoing action",
		"比 comparison",
		"要 future intention",
		"因为…所以…",
		"还是 alternatives",
	},
	"HSK3": {
		"把 construction",
		"被 passive",
		"虽然…但是…",
		"越来越 + adjective",
		"一边…一边…",
		"除了…以外",
		"得 degree complement",
	},
	"HSK4": {
		"不但…而且…",
		"既然…就…",
		"连…都…",
		"无论…都…",
		"只要…就…",
		"竟然 surprise",
		"对于 topic marker",
	},
	"HSK5": {
		"即使…也…",
		"与其…不如…",
		"以…为…",
		"何况 escalation",
		"难免 inevitability",
		"不得不 obligation",
		"毕竟 concession",
	},
	"HSK6": {
		"之所以…是因为…",
		"固然…但…",
		"以免 purpose",
		"不妨 suggestion",
		"宁可…也不…",
		"未免 judgment",
		"何尝 rhetorical negation",
	},
}

// defaultGrammarLevel is used when a topic's level has no catalog of its own.
const defaultGrammarLevel = "HSK3"

// GrammarCatalog returns the grammar patterns for a level. Unknown levels fall
// back to the intermediate catalog.
func GrammarCatalog(level string) []string {
	if patterns, ok := grammarCatalog[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return patterns
	}
	return grammarCatalog[defaultGrammarLevel]
}

// GrammarPlan assigns grammar patterns to word positions.
type GrammarPlan struct {
	Patterns        []string
	WordsPerPattern int
}

// NewGrammarPlan slices target patterns from the level catalog, starting at an
// offset derived from the topic ID so the same topic always gets the same plan.
// Patterns are spread over totalWords by even division.
func NewGrammarPlan(topicID uuid.UUID, level string, target, totalWords int) GrammarPlan {
	if target <= 0 || totalWords <= 0 {
		return GrammarPlan{}
	}
	if target > MaxGrammarTarget {
		target = MaxGrammarTarget
	}

	if target > totalWords {
		target = totalWords
	}

	catalog := GrammarCatalog(level)
	if target > len(catalog) {
		target = len(catalog)
	}

	h := fnv.New32a()
	_, _ = h.Write(topicID[:])
	offset := int(h.Sum32() % uint32(len(catalog)))

	patterns := make([]string, 0, target)
	for i := 0; i < target; i++ {
		patterns = append(patterns, catalog[(offset+i)%len(catalog)])
	}

	wordsPerPattern := totalWords / target
	if wordsPerPattern < 1 {
		wordsPerPattern = 1
	}

	return GrammarPlan{
		Patterns:        patterns,
		WordsPerPattern: wordsPerPattern,
	}
}

// PatternFor returns the pattern targeted at word index i, if any.
func (p GrammarPlan) PatternFor(i int) (string, bool) {
	if len(p.Patterns) == 0 || p.WordsPerPattern <= 0 || i < 0 {
		return "", false
	}
	if i%p.WordsPerPattern != 0 {
		return "", false
	}
	idx := i / p.WordsPerPattern
	if idx >= len(p.Patterns) {
		return "", false
	}
	return p.Patterns[idx], true
}

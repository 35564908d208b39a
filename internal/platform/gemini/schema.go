package gemini

import (
	"google.golang.org/genai"

	"github.com/phrazzld/cizu-api/internal/domain"
)

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

var wordListSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"words": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"hanzi":   stringSchema(),
					"pinyin":  stringSchema(),
					"english": stringSchema(),
				},
				Required: []string{"hanzi", "pinyin", "english"},
			},
		},
	},
	Required: []string{"words"},
}

var sentenceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sentences": {
			Type:     genai.TypeArray,
			MinItems: genai.Ptr[int64](domain.SentencesPerWord),
			MaxItems: genai.Ptr[int64](domain.SentencesPerWord),
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"tier": {
						Type: genai.TypeString,
						Enum: []string{
							string(domain.TierEasy),
							string(domain.TierSame),
							string(domain.TierHard),
						},
					},
					"hanzi":       stringSchema(),
					"pinyin":      stringSchema(),
					"english":     stringSchema(),
					"grammar_tag": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
					"style":       stringSchema(),
				},
				Required: []string{"tier", "hanzi", "pinyin", "english"},
			},
		},
	},
	Required: []string{"sentences"},
}

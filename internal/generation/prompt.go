package generation

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// SystemInstruction is sent as the system message by every provider.
const SystemInstruction = "You write accurate, natural Mandarin Chinese learning material. " +
	"You always answer with a single JSON object and nothing else."

//go:embed prompts/*.tmpl
var promptFS embed.FS

const (
	wordListTemplate  = "prompts/word_list.tmpl"
	sentencesTemplate = "prompts/sentences.tmpl"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// Prompts renders the requests sent to a model.
type Prompts struct {
	words     *template.Template
	sentences *template.Template
}

// LoadPrompts parses the prompt templates. An empty path selects the embedded
// default for that template.
func LoadPrompts(wordPath, sentencePath string) (*Prompts, error) {
	words, err := parseTemplate("word_list", wordPath, wordListTemplate)
	if err != nil {
		return nil, err
	}
	sentences, err := parseTemplate("sentences", sentencePath, sentencesTemplate)
	if err != nil {
		return nil, err
	}
	return &Prompts{words: words, sentences: sentences}, nil
}

func parseTemplate(name, path, embedded string) (*template.Template, error) {
	var (
		content []byte
		err     error
	)
	if path != "" {
		content, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				ErrInvalidConfig, path, err)
		}
	} else {
		content, err = promptFS.ReadFile(embedded)
		if err != nil {
			return nil, fmt.Errorf("%w: missing embedded template %s: %v",
				ErrInvalidConfig, embedded, err)
		}
	}

	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template %s: %v",
			ErrInvalidConfig, name, err)
	}
	return tmpl, nil
}

// WordList renders the word list prompt.
func (p *Prompts) WordList(req WordListRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return execute(p.words, req)
}

// Sentences renders the sentence prompt.
func (p *Prompts) Sentences(req SentenceRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return execute(p.sentences, req)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

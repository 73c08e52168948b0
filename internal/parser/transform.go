package parser

import (
	"sort"
	"strings"

	"github.com/chriserin/story/internal/model"
)

// StoryTransformer rewrites document text before it is parsed.
type StoryTransformer func(text string) string

// TransformingParser applies its transformers in order, then delegates.
type TransformingParser struct {
	delegate     StoryParser
	transformers []StoryTransformer
}

func NewTransforming(delegate StoryParser, transformers ...StoryTransformer) *TransformingParser {
	return &TransformingParser{delegate: delegate, transformers: transformers}
}

func (t *TransformingParser) Parse(text, path string) (*model.Story, error) {
	for _, tf := range t.transformers {
		text = tf(text)
	}
	return t.delegate.Parse(text, path)
}

// Replacing replaces every literal occurrence of each key with its value.
// Longer keys are replaced first so a key never clobbers a longer one that
// contains it.
func Replacing(replacements map[string]string) StoryTransformer {
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, replacements[k])
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace
}

// NormalizeNewlines turns CRLF and lone CR line endings into LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

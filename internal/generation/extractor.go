package generation

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/benvon/sparkreply/internal/models"
)

// Tier names the extraction strategy that produced a result
type Tier string

const (
	TierJSON     Tier = "json"
	TierQuoted   Tier = "quoted"
	TierLines    Tier = "lines"
	TierFallback Tier = "fallback"
)

const (
	minQuotedLength = 20
	maxQuotedLength = 500
	minLineLength   = 10
)

var (
	fencePattern      = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\n?(.*?)\\s*```$")
	quotedPattern     = regexp.MustCompile(`"([^"]{20,500})"`)
	listMarkerPattern = regexp.MustCompile(`(?i)^(?:\d+\s*[\.\)/:]|[-*•→]|tweet\s+\d+\s*:)\s*`)
	// a "key": "value", line left behind by JSON the json tier could not parse
	jsonPairPattern = regexp.MustCompile(`^"?[A-Za-z_][\w -]{0,39}"?\s*:\s*"(.*?)"\s*,?$`)
)

// Strategy is one rung of the fallback ladder. It returns the extracted values in
// order and whether they satisfy the schema.
type Strategy interface {
	Tier() Tier
	Extract(text string, schema Schema) ([]string, bool)
}

// Extraction is the outcome of running the ladder
type Extraction struct {
	Variants models.Variants
	Tier     Tier
}

// Extractor runs strategies in order and falls back to templated text.
// It never fails.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor returns the default ladder: json, quoted, lines
func NewExtractor() *Extractor {
	return &Extractor{strategies: []Strategy{jsonStrategy{}, quotedStrategy{}, lineStrategy{}}}
}

// Extract converts raw completion text into variants. fallback supplies the
// templated values used when every strategy fails.
func (e *Extractor) Extract(raw string, schema Schema, fallback func() []string) Extraction {
	cleaned := StripFences(raw)
	for _, s := range e.strategies {
		if values, ok := s.Extract(cleaned, schema); ok {
			return Extraction{Variants: assign(values, schema), Tier: s.Tier()}
		}
	}

	var values []string
	if fallback != nil {
		values = fallback()
	}
	values = nonEmpty(values)
	for len(values) < schema.Expected() {
		values = append(values, genericFallback)
	}
	return Extraction{Variants: assign(values, schema), Tier: TierFallback}
}

const genericFallback = "Here's something worth a closer look. Let me know what you think."

func assign(values []string, schema Schema) models.Variants {
	n := min(len(values), schema.Limit())
	out := make(models.Variants, n)
	for i := 0; i < n; i++ {
		out[i] = models.Variant{Key: schema.KeyAt(i), Text: Truncate(values[i], MaxCharacters)}
	}
	return out
}

// Truncate shortens s to limit characters, replacing the tail with "..."
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

// StripFences removes a surrounding markdown code fence, if any
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

type jsonStrategy struct{}

func (jsonStrategy) Tier() Tier { return TierJSON }

func (jsonStrategy) Extract(text string, schema Schema) ([]string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, false
	}

	if schema.Keyed() {
		values := make([]string, 0, len(schema.Keys))
		for _, key := range schema.Keys {
			v, ok := lookupString(obj, key)
			if !ok {
				return nil, false
			}
			values = append(values, v)
		}
		return values, true
	}

	items := listItems(obj, schema)
	if len(items) < schema.MinItems {
		return nil, false
	}
	return items, true
}

// lookupString matches key case-insensitively and requires a non-empty string
func lookupString(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		for k, candidate := range obj {
			if strings.EqualFold(k, key) {
				v, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		return "", false
	}
	s, isString := v.(string)
	s = strings.TrimSpace(s)
	return s, isString && s != ""
}

func listItems(obj map[string]any, schema Schema) []string {
	if arr, ok := obj[schema.ListField].([]any); ok {
		return stringItems(arr)
	}

	// positional keys: {"tweet_1": "...", "tweet_2": "..."}
	var positional []string
	for i := 0; i < schema.MaxItems; i++ {
		v, ok := lookupString(obj, schema.KeyAt(i))
		if !ok {
			break
		}
		positional = append(positional, v)
	}
	if len(positional) > 0 {
		return positional
	}

	// any array of strings, in key order so the choice is stable
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if arr, ok := obj[k].([]any); ok {
			if items := stringItems(arr); len(items) > 0 {
				return items
			}
		}
	}
	return nil
}

// stringItems accepts plain strings and objects carrying the text under a common field
func stringItems(arr []any) []string {
	var out []string
	for _, item := range arr {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			for _, field := range []string{"text", "content", "tweet", "idea"} {
				if s, ok := lookupString(v, field); ok {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}

type quotedStrategy struct{}

func (quotedStrategy) Tier() Tier { return TierQuoted }

func (quotedStrategy) Extract(text string, schema Schema) ([]string, bool) {
	var values []string
	for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
		s := strings.TrimSpace(m[1])
		if n := utf8.RuneCountInString(s); n < minQuotedLength || n > maxQuotedLength {
			continue
		}
		values = append(values, s)
	}
	if len(values) < schema.Expected() {
		return nil, false
	}
	return values, true
}

type lineStrategy struct{}

func (lineStrategy) Tier() Tier { return TierLines }

func (lineStrategy) Extract(text string, schema Schema) ([]string, bool) {
	var values []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.ContainsAny(line, "{}") {
			continue
		}
		line = cleanLine(line)
		if n := utf8.RuneCountInString(line); n < minLineLength || n > MaxCharacters {
			continue
		}
		values = append(values, line)
	}
	if len(values) < schema.Expected() {
		return nil, false
	}
	return values, true
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// cleanLine strips list markers and any JSON syntax from one line of model output
func cleanLine(line string) string {
	line = listMarkerPattern.ReplaceAllString(line, "")
	if m := jsonPairPattern.FindStringSubmatch(line); m != nil {
		line = m[1]
	} else {
		line = strings.TrimSuffix(strings.TrimSpace(line), ",")
		line = strings.Trim(line, `"' `)
	}
	var unescaped string
	if strings.Contains(line, `\`) && json.Unmarshal([]byte(`"`+line+`"`), &unescaped) == nil {
		line = unescaped
	}
	return strings.TrimSpace(line)
}

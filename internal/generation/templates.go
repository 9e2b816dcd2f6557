package generation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/benvon/sparkreply/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templateDocument struct {
	Partials      map[string]string              `yaml:"partials"`
	RewriteStyles map[string]string              `yaml:"rewrite_styles"`
	ContentTypes  map[string]contentTypeTemplate `yaml:"content_types"`
}

type contentTypeTemplate struct {
	Prompt       string   `yaml:"prompt"`
	Fallback     []string `yaml:"fallback"`
	FallbackEach string   `yaml:"fallback_each"`
}

// Templates holds the parsed prompt and fallback templates for every content type
type Templates struct {
	prompts       map[models.ContentType]*template.Template
	fallbacks     map[models.ContentType][]*template.Template
	fallbackEach  map[models.ContentType]*template.Template
	rewriteStyles map[string]string
}

var templateFuncs = template.FuncMap{
	"inc":        func(i int) int { return i + 1 },
	"join":       strings.Join,
	"trimSpace":  strings.TrimSpace,
	"trimPrefix": func(prefix, s string) string { return strings.TrimPrefix(s, prefix) },
	"hashtags": func(tags []string) []string {
		out := make([]string, len(tags))
		for i, t := range tags {
			out[i] = "#" + t
		}
		return out
	},
	"default": func(def, value string) string {
		if strings.TrimSpace(value) == "" {
			return def
		}
		return value
	},
}

// LoadTemplates reads the template document at path, or the embedded default when path is empty.
func LoadTemplates(path string) (*Templates, error) {
	if path == "" {
		return ParseTemplates(defaultTemplates)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt templates: %w", err)
	}
	return ParseTemplates(data)
}

// DefaultTemplates returns the embedded templates. It panics if they do not parse.
func DefaultTemplates() *Templates {
	t, err := ParseTemplates(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt templates are invalid: %v", err))
	}
	return t
}

// ParseTemplates parses a YAML template document and checks every content type is covered.
func ParseTemplates(data []byte) (*Templates, error) {
	var doc templateDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	base := template.New("base").Funcs(templateFuncs).Option("missingkey=zero")
	for name, body := range doc.Partials {
		if _, err := base.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse partial %q: %w", name, err)
		}
	}

	t := &Templates{
		prompts:       make(map[models.ContentType]*template.Template),
		fallbacks:     make(map[models.ContentType][]*template.Template),
		fallbackEach:  make(map[models.ContentType]*template.Template),
		rewriteStyles: doc.RewriteStyles,
	}

	for _, ct := range models.AllContentTypes {
		entry, ok := doc.ContentTypes[string(ct)]
		if !ok || strings.TrimSpace(entry.Prompt) == "" {
			return nil, fmt.Errorf("prompt template for %q is missing", ct)
		}

		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone base template: %w", err)
		}
		prompt, err := clone.New(string(ct)).Parse(entry.Prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt template %q: %w", ct, err)
		}
		t.prompts[ct] = prompt

		for i, body := range entry.Fallback {
			fb, err := template.New(fmt.Sprintf("%s_fallback_%d", ct, i)).Funcs(templateFuncs).Parse(body)
			if err != nil {
				return nil, fmt.Errorf("failed to parse fallback %d for %q: %w", i, ct, err)
			}
			t.fallbacks[ct] = append(t.fallbacks[ct], fb)
		}
		if entry.FallbackEach != "" {
			fb, err := template.New(string(ct) + "_fallback_each").Funcs(templateFuncs).Parse(entry.FallbackEach)
			if err != nil {
				return nil, fmt.Errorf("failed to parse fallback_each for %q: %w", ct, err)
			}
			t.fallbackEach[ct] = fb
		}

		spec, err := Spec(ct)
		if err != nil {
			return nil, err
		}
		if t.fallbackEach[ct] == nil && len(t.fallbacks[ct]) < spec.Schema(0).Expected() {
			return nil, fmt.Errorf("content type %q needs at least %d fallback templates, found %d",
				ct, spec.Schema(0).Expected(), len(t.fallbacks[ct]))
		}
	}

	return t, nil
}

// RewriteInstruction returns the instruction block for a rewrite type
func (t *Templates) RewriteInstruction(rewriteType string) string {
	return t.rewriteStyles[rewriteType]
}

// RenderPrompt executes the prompt template for ct
func (t *Templates) RenderPrompt(ct models.ContentType, view *PromptView) (string, error) {
	tmpl, ok := t.prompts[ct]
	if !ok {
		return "", fmt.Errorf("no prompt template for %q", ct)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", ct, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// fallbackItem is the data passed to a fallback_each template
type fallbackItem struct {
	Index  int
	Number int
	Text   string
	View   *PromptView
}

// RenderFallback renders the templated fallback values for ct. Templates that fail
// to execute are skipped; the extractor pads any shortfall.
func (t *Templates) RenderFallback(ct models.ContentType, view *PromptView) []string {
	var out []string
	if each, ok := t.fallbackEach[ct]; ok {
		for i, text := range view.SourceTweets {
			var b strings.Builder
			if err := each.Execute(&b, fallbackItem{Index: i, Number: i + 1, Text: text, View: view}); err != nil {
				continue
			}
			out = append(out, strings.TrimSpace(b.String()))
		}
		return out
	}

	for _, tmpl := range t.fallbacks[ct] {
		var b strings.Builder
		if err := tmpl.Execute(&b, view); err != nil {
			continue
		}
		out = append(out, strings.TrimSpace(b.String()))
	}
	return out
}

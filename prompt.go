package secflow

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// embeddedPrompts holds the default agent and PR templates.
//
//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// PromptLoader renders the instruction and PR templates. Templates embedded
// in the binary can be overridden by dropping same-named .txt files into a
// search directory.
type PromptLoader struct {
	dirs    []string
	cache   map[string]*template.Template
	funcMap template.FuncMap
}

// NewPromptLoader creates a prompt loader with the default embedded templates.
func NewPromptLoader(dirs ...string) *PromptLoader {
	return &PromptLoader{
		dirs:    dirs,
		cache:   make(map[string]*template.Template),
		funcMap: defaultPromptFuncMap(),
	}
}

// Render loads and renders a template with variable substitution.
func (l *PromptLoader) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := l.getTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// FixInstruction composes the agent instruction from the vulnerability
// description and the vulnerable code excerpt.
func (l *PromptLoader) FixInstruction(req FixRequest) (string, error) {
	return l.Render("fix_instruction", map[string]any{
		"FilePath":       req.FilePath,
		"Vulnerability":  req.Vulnerability,
		"VulnerableCode": req.VulnerableCode,
	})
}

// PRBody renders the pull request description for a fix.
func (l *PromptLoader) PRBody(req FixRequest, branch string) (string, error) {
	return l.Render("pr_body", map[string]any{
		"Vulnerability": req.Vulnerability,
		"FilePath":      req.FilePath,
		"Branch":        branch,
	})
}

// getTemplate loads and caches a template.
func (l *PromptLoader) getTemplate(name string) (*template.Template, error) {
	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}

	content, err := l.loadRaw(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(l.funcMap).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}

	l.cache[name] = tmpl
	return tmpl, nil
}

// loadRaw loads raw template content, preferring search directories over the
// embedded defaults.
func (l *PromptLoader) loadRaw(name string) (string, error) {
	filename := name + ".txt"

	for _, dir := range l.dirs {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err == nil {
			return string(data), nil
		}
	}

	data, err := embeddedPrompts.ReadFile("prompts/" + filename)
	if err != nil {
		return "", fmt.Errorf("prompt not found: %s", name)
	}
	return string(data), nil
}

// defaultPromptFuncMap returns default template functions.
func defaultPromptFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":    strings.Join,
		"trim":    strings.TrimSpace,
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"title":   cases.Title(language.English).String,
		"replace": strings.ReplaceAll,
	}
}

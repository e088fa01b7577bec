// Package localization renders notification and bot-command templates per language.
// The en and uk templates are compiled in; a directory of JSON files may override them.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "en"

//go:embed *.json
var bundled embed.FS

// Localizer maps language -> key -> template.
type Localizer struct {
	mu        sync.RWMutex
	templates map[string]map[string]string
}

// NewLocalizer loads the bundled templates and, when dir is not empty, merges
// every <lang>.json found in dir over them.
func NewLocalizer(dir string) (*Localizer, error) {
	l := &Localizer{templates: make(map[string]map[string]string)}
	if err := l.load(bundled); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := l.load(os.DirFS(dir)); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Localizer) load(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var set map[string]string
		if err := json.Unmarshal(data, &set); err != nil {
			return fmt.Errorf("parse %s: %w", e.Name(), err)
		}

		lang := strings.TrimSuffix(e.Name(), ".json")
		if l.templates[lang] == nil {
			l.templates[lang] = make(map[string]string, len(set))
		}
		for k, v := range set {
			l.templates[lang][k] = v
		}
	}
	return nil
}

// GetString returns the template for key in lang, falling back to the default
// language and finally to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, candidate := range []string{lang, DefaultLanguage} {
		if v, ok := l.templates[candidate][key]; ok {
			return v
		}
	}
	return key
}

// Format returns the template for key with every {name} placeholder
// replaced by args[name].
func (l *Localizer) Format(lang, key string, args map[string]string) string {
	tmpl := l.GetString(lang, key)
	if len(args) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Languages lists the loaded language codes in sorted order.
func (l *Localizer) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	langs := make([]string, 0, len(l.templates))
	for lang := range l.templates {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

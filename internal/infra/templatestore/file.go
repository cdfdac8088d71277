package templatestore

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"herald/internal/domain/notification"

	"gopkg.in/yaml.v3"
)

var _ notification.TemplateStore = (*FileStore)(nil)

// FileStore is a YAML-backed template store. The backing file is a tree
// keyed by channel type, then language, then notification name; each leaf is
// either a plain string (flat SMS-style template) or a mapping with subject
// and body fields (email-style).
//
// The file is read once, lazily, on first access. Priming is idempotent: a
// successful load is never repeated, concurrent readers are safe, and a
// failed load degrades lookups to "not found" so dispatch can continue with
// other channels.
type FileStore struct {
	path string

	mu     sync.RWMutex
	primed bool
	cache  map[notification.Channel]map[string]map[notification.NotificationType]*notification.Template
}

// NewFileStore creates a file-backed template store. The file is not read
// until the first lookup.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get retrieves the template for the given channel, name, and language.
// Returns nil, nil when no such template exists; a backing read error is
// returned but callers treat it as a miss.
func (s *FileStore) Get(channel notification.Channel, name notification.NotificationType, language string) (*notification.Template, error) {
	if err := s.prime(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	langs, ok := s.cache[channel]
	if !ok {
		return nil, nil
	}
	names, ok := langs[language]
	if !ok {
		return nil, nil
	}
	return names[name], nil
}

// Exists reports whether any language has a template for the pair.
func (s *FileStore) Exists(channel notification.Channel, name notification.NotificationType) bool {
	if err := s.prime(); err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, names := range s.cache[channel] {
		if _, ok := names[name]; ok {
			return true
		}
	}
	return false
}

// Languages returns the sorted set of language codes holding a template for
// the pair.
func (s *FileStore) Languages(channel notification.Channel, name notification.NotificationType) []string {
	if err := s.prime(); err != nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var langs []string
	for lang, names := range s.cache[channel] {
		if _, ok := names[name]; ok {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// prime loads the backing file into the cache exactly once. A failed load
// leaves the store unprimed so a later call can retry.
func (s *FileStore) prime() error {
	s.mu.RLock()
	primed := s.primed
	s.mu.RUnlock()
	if primed {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.primed {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		slog.Error("template store: reading backing file failed", "path", s.path, "error", err)
		return fmt.Errorf("reading template file %s: %w", s.path, err)
	}

	var raw map[string]map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		slog.Error("template store: parsing backing file failed", "path", s.path, "error", err)
		return fmt.Errorf("parsing template file %s: %w", s.path, err)
	}

	cache := make(map[notification.Channel]map[string]map[notification.NotificationType]*notification.Template)
	for channel, langs := range raw {
		ch := notification.Channel(channel)
		cache[ch] = make(map[string]map[notification.NotificationType]*notification.Template, len(langs))
		for lang, names := range langs {
			cache[ch][lang] = make(map[notification.NotificationType]*notification.Template, len(names))
			for name, value := range names {
				tpl, err := decodeTemplate(value)
				if err != nil {
					slog.Warn("template store: skipping malformed entry",
						"channel", channel, "language", lang, "name", name, "error", err)
					continue
				}
				cache[ch][lang][notification.NotificationType(name)] = tpl
			}
		}
	}

	s.cache = cache
	s.primed = true
	slog.Info("template store primed", "path", s.path, "channels", len(cache))
	return nil
}

// decodeTemplate converts a YAML leaf into a Template: a plain string is a
// flat body-only template, a mapping carries subject and body.
func decodeTemplate(value any) (*notification.Template, error) {
	switch v := value.(type) {
	case string:
		return &notification.Template{Body: v}, nil
	case map[string]any:
		tpl := &notification.Template{}
		if subject, ok := v["subject"].(string); ok {
			tpl.Subject = subject
		}
		body, ok := v["body"].(string)
		if !ok {
			return nil, fmt.Errorf("template mapping missing string body")
		}
		tpl.Body = body
		return tpl, nil
	default:
		return nil, fmt.Errorf("unsupported template value type %T", value)
	}
}

package templatestore

import (
	"sort"
	"sync"

	"herald/internal/domain/notification"
)

var _ notification.TemplateStore = (*MemoryStore)(nil)

// entryKey identifies one template in the store.
type entryKey struct {
	channel  notification.Channel
	name     notification.NotificationType
	language string
}

// MemoryStore is a map-backed template store for tests and embedded setups.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[entryKey]*notification.Template
}

// NewMemoryStore creates an empty in-memory template store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[entryKey]*notification.Template)}
}

// Add registers a template for the given channel, name, and language,
// replacing any existing entry.
func (s *MemoryStore) Add(channel notification.Channel, name notification.NotificationType, language string, tpl *notification.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[entryKey{channel, name, language}] = tpl
}

// Get retrieves a template. Returns nil, nil when absent.
func (s *MemoryStore) Get(channel notification.Channel, name notification.NotificationType, language string) (*notification.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates[entryKey{channel, name, language}], nil
}

// Exists reports whether any language has a template for the pair.
func (s *MemoryStore) Exists(channel notification.Channel, name notification.NotificationType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k := range s.templates {
		if k.channel == channel && k.name == name {
			return true
		}
	}
	return false
}

// Languages returns the sorted language codes holding a template for the pair.
func (s *MemoryStore) Languages(channel notification.Channel, name notification.NotificationType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var langs []string
	for k := range s.templates {
		if k.channel == channel && k.name == name {
			langs = append(langs, k.language)
		}
	}
	sort.Strings(langs)
	return langs
}

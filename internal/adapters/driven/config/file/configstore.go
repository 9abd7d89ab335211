package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	// DefaultDirName is the config directory under the user's home.
	DefaultDirName = ".graphvec"

	// EnvPrefix prefixes environment overrides. The key "embedding.api_key"
	// is overridden by GRAPHVEC_EMBEDDING_API_KEY.
	EnvPrefix = "GRAPHVEC_"

	fileName = "config.toml"
)

// ConfigStore reads and writes config.toml. Tables are flattened into
// dot-notation keys on load and rebuilt on save.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens config.toml in configDir, creating the directory
// when missing. An empty configDir means ~/.graphvec.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		configDir = filepath.Join(home, DefaultDirName)
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		path:   filepath.Join(configDir, fileName),
		values: make(map[string]any),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Get returns the environment override for key if set, else the file value.
func (s *ConfigStore) Get(key string) (any, bool) {
	if v, ok := os.LookupEnv(EnvName(key)); ok && v != "" {
		return v, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value and rewrites the file. Environment overrides are
// never written back.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.write(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Keys returns the file's keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Reload re-reads the file. A missing file yields an empty config.
func (s *ConfigStore) Reload() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.values = make(map[string]any)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	var tables map[string]any
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.values = flattenMap(tables, "")
	s.mu.Unlock()
	return nil
}

// write replaces the file atomically. Caller holds the lock.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(unflattenMap(s.values))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".*")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// unflattenMap turns {"a.b": 1} into {"a": {"b": 1}}.
func unflattenMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		table := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := table[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				table[part] = next
			}
			table = next
		}
		table[parts[len(parts)-1]] = value
	}
	return root
}

// flattenMap turns {"a": {"b": 1}} into {"a.b": 1}.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	for key, value := range nested {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(table, key) {
				flat[k] = v
			}
			continue
		}
		flat[key] = value
	}
	return flat
}

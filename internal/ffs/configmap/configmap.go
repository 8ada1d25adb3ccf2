// Package configmap implements the typed device configuration store: a
// string-keyed map from stable keys to bytes, string, integer or boolean
// values, persisted as YAML. A missing key is reported as a distinct
// "not implemented" outcome so optional lookups stay non-fatal.
package configmap

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ffs-wifi/provisionee/internal/model"
)

// ValueType discriminates the stored value kinds.
type ValueType int

const (
	// TypeBytes is a raw byte value.
	TypeBytes ValueType = iota
	// TypeString is a UTF-8 string value.
	TypeString
	// TypeInteger is a signed integer value.
	TypeInteger
	// TypeBoolean is a boolean value.
	TypeBoolean
)

// String returns the type name used in the YAML file.
func (t ValueType) String() string {
	switch t {
	case TypeBytes:
		return "bytes"
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is one typed configuration entry.
type Value struct {
	Type    ValueType
	Bytes   []byte
	String  string
	Integer int64
	Boolean bool
}

// BytesValue constructs a bytes entry.
func BytesValue(b []byte) Value {
	return Value{Type: TypeBytes, Bytes: append([]byte(nil), b...)}
}

// StringValue constructs a string entry.
func StringValue(s string) Value {
	return Value{Type: TypeString, String: s}
}

// IntegerValue constructs an integer entry.
func IntegerValue(i int64) Value {
	return Value{Type: TypeInteger, Integer: i}
}

// BooleanValue constructs a boolean entry.
func BooleanValue(b bool) Value {
	return Value{Type: TypeBoolean, Boolean: b}
}

// Manager is the configuration map with YAML-on-disk persistence. It is
// safe for concurrent use; the filesystem is swappable for tests.
type Manager struct {
	mu     sync.RWMutex
	values map[string]Value
	path   string
	loaded bool
	fs     afero.Fs
}

// NewManager creates a manager backed by the file at path. An empty path
// defaults to "configmap.yaml" in the working directory. The file is
// loaded lazily on first access.
func NewManager(path string) *Manager {
	if path == "" {
		path = "configmap.yaml"
	}
	return &Manager{path: path, fs: afero.NewOsFs()}
}

// NewTestManager creates a loaded in-memory manager pre-seeded with values.
func NewTestManager(values map[string]Value) *Manager {
	m := &Manager{
		path:   "configmap.yaml",
		fs:     afero.NewMemMapFs(),
		values: map[string]Value{},
		loaded: true,
	}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// SetFs replaces the manager's filesystem, for tests.
func (m *Manager) SetFs(fs afero.Fs) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fs = fs
}

// Path returns the backing file path.
func (m *Manager) Path() string {
	return m.path
}

// fileEntry is the on-disk representation of one value.
type fileEntry struct {
	Type    string `yaml:"type"`
	Bytes   []byte `yaml:"bytes,omitempty"`
	String  string `yaml:"string,omitempty"`
	Integer int64  `yaml:"integer,omitempty"`
	Boolean bool   `yaml:"boolean,omitempty"`
}

func (m *Manager) loadLocked() error {
	if m.loaded {
		return nil
	}
	m.values = map[string]Value{}
	m.loaded = true

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		// A missing file is an empty map.
		if exists, _ := afero.Exists(m.fs, m.path); !exists {
			return nil
		}
		return fmt.Errorf("reading configuration map: %w", err)
	}

	var entries map[string]fileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing configuration map: %w", err)
	}

	for key, e := range entries {
		switch e.Type {
		case "bytes":
			m.values[key] = BytesValue(e.Bytes)
		case "string":
			m.values[key] = StringValue(e.String)
		case "integer":
			m.values[key] = IntegerValue(e.Integer)
		case "boolean":
			m.values[key] = BooleanValue(e.Boolean)
		default:
			return fmt.Errorf("%w: configuration value type %q for key %q", model.ErrInvalidArgument, e.Type, key)
		}
	}
	return nil
}

func (m *Manager) saveLocked() error {
	entries := make(map[string]fileEntry, len(m.values))
	for key, v := range m.values {
		e := fileEntry{Type: v.Type.String()}
		switch v.Type {
		case TypeBytes:
			e.Bytes = v.Bytes
		case TypeString:
			e.String = v.String
		case TypeInteger:
			e.Integer = v.Integer
		case TypeBoolean:
			e.Boolean = v.Boolean
		}
		entries[key] = e
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding configuration map: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "." {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating configuration directory: %w", err)
		}
	}
	if err := afero.WriteFile(m.fs, m.path, data, 0o600); err != nil {
		return fmt.Errorf("writing configuration map: %w", err)
	}
	return nil
}

// Get returns the value stored under key. A missing key returns
// ErrNotImplemented, which callers of optional keys must treat as
// non-fatal.
func (m *Manager) Get(key string) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadLocked(); err != nil {
		return Value{}, err
	}
	v, ok := m.values[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: configuration key %q", model.ErrNotImplemented, key)
	}
	return v, nil
}

// GetString returns a string value, failing if the key holds another type.
func (m *Manager) GetString(key string) (string, error) {
	v, err := m.Get(key)
	if err != nil {
		return "", err
	}
	if v.Type != TypeString {
		return "", fmt.Errorf("%w: key %q holds %s, want string", model.ErrInvalidArgument, key, v.Type)
	}
	return v.String, nil
}

// GetBytes returns a bytes value, failing if the key holds another type.
func (m *Manager) GetBytes(key string) ([]byte, error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Type != TypeBytes {
		return nil, fmt.Errorf("%w: key %q holds %s, want bytes", model.ErrInvalidArgument, key, v.Type)
	}
	return append([]byte(nil), v.Bytes...), nil
}

// GetInteger returns an integer value, failing if the key holds another type.
func (m *Manager) GetInteger(key string) (int64, error) {
	v, err := m.Get(key)
	if err != nil {
		return 0, err
	}
	if v.Type != TypeInteger {
		return 0, fmt.Errorf("%w: key %q holds %s, want integer", model.ErrInvalidArgument, key, v.Type)
	}
	return v.Integer, nil
}

// GetBoolean returns a boolean value, failing if the key holds another type.
func (m *Manager) GetBoolean(key string) (bool, error) {
	v, err := m.Get(key)
	if err != nil {
		return false, err
	}
	if v.Type != TypeBoolean {
		return false, fmt.Errorf("%w: key %q holds %s, want boolean", model.ErrInvalidArgument, key, v.Type)
	}
	return v.Boolean, nil
}

// Set stores value under key and persists the map.
func (m *Manager) Set(key string, value Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadLocked(); err != nil {
		return err
	}
	m.values[key] = value
	return m.saveLocked()
}

// Delete removes key and persists the map. Deleting a missing key is a no-op.
func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadLocked(); err != nil {
		return err
	}
	if _, ok := m.values[key]; !ok {
		return nil
	}
	delete(m.values, key)
	return m.saveLocked()
}

// Keys returns all stored keys in sorted order.
func (m *Manager) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadLocked(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// FormatValue renders a value for display.
func FormatValue(v Value) string {
	switch v.Type {
	case TypeBytes:
		return fmt.Sprintf("bytes(%d)", len(v.Bytes))
	case TypeString:
		return v.String
	case TypeInteger:
		return fmt.Sprintf("%d", v.Integer)
	case TypeBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	default:
		return "?"
	}
}

// Section returns the Section part of a dotted key, or "" when the key
// has no dot.
func Section(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i]
	}
	return ""
}

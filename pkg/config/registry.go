package config

import (
	"errors"
	"fmt"

	"github.com/Tamagotono/CycleTester/pkg/storage"
)

// ErrUnknownTest is returned by Registry.Load for a name not found by Scan.
var ErrUnknownTest = errors.New("unknown test")

// Registry maps test names to the files on a storage volume that define them.
type Registry struct {
	volume  storage.Volume
	prefix  string
	ext     string
	entries []storage.Entry
	byName  map[string]storage.Entry
}

// NewRegistry creates an empty registry over v. Call Scan to fill it.
func NewRegistry(v storage.Volume, sc StorageConfig) *Registry {
	return &Registry{
		volume: v,
		prefix: sc.Prefix,
		ext:    sc.Extension,
		byName: make(map[string]storage.Entry),
	}
}

// Scan lists the volume. When storage is unavailable the registry is left
// empty and the error wraps storage.ErrUnavailable.
func (r *Registry) Scan() ([]storage.Entry, error) {
	entries, err := storage.ListTests(r.volume, r.prefix, r.ext)
	r.entries = entries
	r.byName = make(map[string]storage.Entry, len(entries))
	for _, e := range entries {
		if _, dup := r.byName[e.Name]; !dup {
			r.byName[e.Name] = e
		}
	}
	return entries, err
}

// Entries returns the entries found by the last Scan, sorted by name.
func (r *Registry) Entries() []storage.Entry {
	return r.entries
}

// Lookup returns the entry named name. When two files differ only in the
// case of their extension, the first in Entries wins.
func (r *Registry) Lookup(name string) (storage.Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Load reads and validates the test named name.
func (r *Registry) Load(name string) (*TestConfig, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTest, name)
	}
	return r.LoadEntry(e)
}

// LoadEntry reads and validates the file backing e.
func (r *Registry) LoadEntry(e storage.Entry) (*TestConfig, error) {
	data, err := storage.ReadFile(r.volume, e.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Filename, err)
	}
	tc, err := ParseTest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Filename, err)
	}
	return tc, nil
}

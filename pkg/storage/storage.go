package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"sort"
	"strings"
)

const (
	// DefaultPrefix is the literal every test file name starts with.
	DefaultPrefix = "TEST_"
	// DefaultExt is the test file extension, matched case-insensitively.
	DefaultExt = ".yaml"
)

// ErrUnavailable is returned when the volume cannot be listed even after a
// remount. It is recoverable; callers show an empty menu.
var ErrUnavailable = errors.New("storage unavailable")

// Volume is removable storage holding test files in a single directory.
type Volume interface {
	Mount() error
	ReadDir() ([]fs.DirEntry, error)
	Open(name string) (fs.File, error)
}

// Ensure Dir implements Volume.
var _ Volume = (*Dir)(nil)

// Ensure FS implements Volume.
var _ Volume = (*FS)(nil)

// Entry is a selectable test: the display name and the file backing it.
type Entry struct {
	Name     string
	Filename string
}

// Dir is a volume backed by a host directory, e.g. a mounted SD card.
type Dir struct {
	Path string
}

// NewDir creates a volume for the directory at path.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

// Mount checks that the directory is present.
func (d *Dir) Mount() error {
	info, err := os.Stat(d.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrUnavailable, d.Path)
	}
	return nil
}

func (d *Dir) ReadDir() ([]fs.DirEntry, error) {
	return os.ReadDir(d.Path)
}

func (d *Dir) Open(name string) (fs.File, error) {
	return os.DirFS(d.Path).Open(name)
}

// FS is a volume over an fs.FS, such as tests embedded in the firmware image.
type FS struct {
	fsys fs.FS
	dir  string

	// MountFunc, when set, is called by Mount.
	MountFunc func() error
}

// NewFS creates a volume listing dir inside fsys.
func NewFS(fsys fs.FS, dir string) *FS {
	if dir == "" {
		dir = "."
	}
	return &FS{fsys: fsys, dir: dir}
}

func (f *FS) Mount() error {
	if f.MountFunc == nil {
		return nil
	}
	return f.MountFunc()
}

func (f *FS) ReadDir() ([]fs.DirEntry, error) {
	return fs.ReadDir(f.fsys, f.dir)
}

func (f *FS) Open(name string) (fs.File, error) {
	return f.fsys.Open(path.Join(f.dir, name))
}

// ReadFile reads a whole file from v.
func ReadFile(v Volume, name string) ([]byte, error) {
	file, err := v.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// ListTests returns the test entries on v sorted by name, then filename. A file qualifies
// when it starts with prefix and ends with ext; its name is what lies
// between. If the volume cannot be read it is mounted and read once more;
// if that also fails the list is empty and the error wraps ErrUnavailable.
func ListTests(v Volume, prefix, ext string) ([]Entry, error) {
	files, err := v.ReadDir()
	if err != nil {
		log.Printf("Storage not readable, mounting: %v", err)
		if mountErr := v.Mount(); mountErr != nil {
			log.Printf("Mount failed: %v", mountErr)
		}
		files, err = v.ReadDir()
		if err != nil {
			return []Entry{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if name, ok := testName(f.Name(), prefix, ext); ok {
			entries = append(entries, Entry{Name: name, Filename: f.Name()})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Filename < entries[j].Filename
	})
	return entries, nil
}

func testName(filename, prefix, ext string) (string, bool) {
	if len(filename) <= len(prefix)+len(ext) || !strings.HasPrefix(filename, prefix) {
		return "", false
	}
	cut := len(filename) - len(ext)
	if !strings.EqualFold(filename[cut:], ext) {
		return "", false
	}
	return filename[len(prefix):cut], true
}

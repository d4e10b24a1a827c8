package fsops

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemFS implements FS in memory for testing.
type MemFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemFS creates an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// WriteFile stores a file, creating its parent directories.
func (m *MemFS) WriteFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeLocked(path, data)
}

func (m *MemFS) writeLocked(path string, data []byte) {
	path = filepath.Clean(path)
	m.files[path] = append([]byte(nil), data...)
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
		if dir == filepath.Dir(dir) {
			break
		}
	}
}

// Exists reports whether path is a stored file or directory.
func (m *MemFS) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

// IsFile reports whether path is a stored file.
func (m *MemFS) IsFile(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok, nil
}

// ReadFile returns a copy of the stored file.
func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// ReadDir lists the direct children of path.
func (m *MemFS) ReadDir(path string) ([]os.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if !m.dirs[path] {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}

	seen := make(map[string]bool)
	var entries []os.DirEntry
	add := func(child string, isDir bool) {
		if filepath.Dir(child) != path || child == path || seen[child] {
			return
		}
		seen[child] = true
		entries = append(entries, memEntry{name: filepath.Base(child), dir: isDir})
	}
	for f := range m.files {
		add(f, false)
	}
	for d := range m.dirs {
		add(d, true)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// MkdirAll records path and its parents as directories.
func (m *MemFS) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := filepath.Clean(path); ; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return nil
}

// RemoveAll deletes path and everything below it.
func (m *MemFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(filepath.Clean(path))
	return nil
}

func (m *MemFS) removeLocked(path string) {
	prefix := path + string(filepath.Separator)
	for f := range m.files {
		if f == path || strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
}

// ResetDir wipes path and recreates it empty.
func (m *MemFS) ResetDir(path string) error {
	if err := m.RemoveAll(path); err != nil {
		return err
	}
	return m.MkdirAll(path, 0755)
}

// AtomicWrite stores data at path.
func (m *MemFS) AtomicWrite(path string, data []byte, _ os.FileMode) error {
	m.WriteFile(path, data)
	return nil
}

// ValidateIdentifier applies the same rules as RealFS.
func (m *MemFS) ValidateIdentifier(id string) error {
	return ValidateIdentifier(id)
}

// Files returns the stored file paths in lexical order.
func (m *MemFS) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for f := range m.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

type memEntry struct {
	name string
	dir  bool
}

func (e memEntry) Name() string { return e.name }
func (e memEntry) IsDir() bool  { return e.dir }
func (e memEntry) Type() fs.FileMode {
	if e.dir {
		return fs.ModeDir
	}
	return 0
}
func (e memEntry) Info() (fs.FileInfo, error) { return memInfo(e), nil }

type memInfo memEntry

func (i memInfo) Name() string { return i.name }
func (i memInfo) Size() int64  { return 0 }
func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }

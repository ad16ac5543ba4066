package template

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

//go:embed templates/*.html
var embeddedFS embed.FS

// Source returns literal template text for a named template.
type Source interface {
	Load(name string) (string, error)
}

// EmbeddedSource serves the templates compiled into the binary.
type EmbeddedSource struct{}

// NewEmbeddedSource returns a Source backed by the embedded template files.
func NewEmbeddedSource() *EmbeddedSource { return &EmbeddedSource{} }

func (s *EmbeddedSource) Load(name string) (string, error) {
	data, err := embeddedFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return string(data), nil
}

// DirSource reads templates from a directory on disk. Templates are immutable
// once loaded; the cache is populated on first read and shared across
// concurrently-serving request handlers.
type DirSource struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string
}

// NewDirSource returns a Source reading from dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir, cache: make(map[string]string)}
}

func (s *DirSource) Load(name string) (string, error) {
	s.mu.RLock()
	if text, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return text, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	s.mu.Lock()
	s.cache[name] = string(data)
	s.mu.Unlock()
	return string(data), nil
}

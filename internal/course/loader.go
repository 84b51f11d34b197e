package course

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches the built-in course catalog from the filesystem.
// Catalog files are YAML course definitions; progress state never lives
// here, it is overlaid from the user's snapshot at read time.
type Loader struct {
	rootDir string
	courses map[string]Course
	mu      sync.RWMutex
}

// NewLoader creates a catalog loader and loads all course definitions.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		courses: make(map[string]Course),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	slog.Info("catalog loaded", "courses", len(l.courses))
	return l, nil
}

// GetCourse returns a catalog course by ID.
func (l *Loader) GetCourse(id string) (Course, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.courses[id]
	return c, ok
}

// AllCourses returns all loaded catalog courses.
func (l *Loader) AllCourses() []Course {
	l.mu.RLock()
	defer l.mu.RUnlock()
	courses := make([]Course, 0, len(l.courses))
	for _, c := range l.courses {
		courses = append(courses, c)
	}
	return courses
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadCourse(path)
		}
		return nil
	})
}

func (l *Loader) loadCourse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var c Course
	if err := yaml.Unmarshal(data, &c); err != nil {
		slog.Warn("skipping invalid course YAML", "path", path, "error", err)
		return nil
	}

	if c.ID == "" {
		return nil // Not a course file
	}

	l.mu.Lock()
	l.courses[c.ID] = c
	l.mu.Unlock()

	return nil
}

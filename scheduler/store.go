package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	vkteamsbot "github.com/vkteams-go/bot"
)

const storeVersion = 1

// storeDoc is the on-disk shape of the task file.
type storeDoc struct {
	Version int    `json:"version"`
	Tasks   []Task `json:"tasks"`
}

// Store persists a task set to a single JSON file, guarding every read and
// write with a mutex and replacing the file atomically via a temp-file
// rename so a crash mid-write never leaves a truncated file behind.
type Store struct {
	mu   sync.Mutex
	path string
}

// DefaultStorePath returns the conventional task file location under the
// user's data directory.
func DefaultStorePath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, ".local", "share", "vkteams-bot", "scheduler.json")
}

// NewStore opens a Store at path, creating the parent directory and an
// empty task file if neither exists yet.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultStorePath()
	}
	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &vkteamsbot.ErrIO{Path: filepath.Dir(path), Err: err}
		}
		if err := s.save(storeDoc{Version: storeVersion}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load reads every task currently on disk.
func (s *Store) Load() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

// Put inserts or replaces the task with the same ID.
func (s *Store) Put(t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range doc.Tasks {
		if existing.ID == t.ID {
			doc.Tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Tasks = append(doc.Tasks, t)
	}
	return s.save(doc)
}

// Delete removes the task with the given ID, if present.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	out := doc.Tasks[:0]
	for _, t := range doc.Tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	doc.Tasks = out
	return s.save(doc)
}

// Replace overwrites the entire task set in one write, used by the tick
// loop after advancing schedules and bumping run counts.
func (s *Store) Replace(tasks []Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(storeDoc{Version: storeVersion, Tasks: tasks})
}

func (s *Store) load() (storeDoc, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return storeDoc{}, &vkteamsbot.ErrIO{Path: s.path, Err: err}
	}
	var doc storeDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return storeDoc{}, &vkteamsbot.ErrSerialization{Op: "scheduler store load", Err: err}
	}
	if doc.Version == 0 {
		doc.Version = storeVersion
	}
	return doc, nil
}

// save writes doc to a temp file in the same directory and renames it over
// the target path, so readers never observe a partially written file.
func (s *Store) save(doc storeDoc) error {
	doc.Version = storeVersion
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &vkteamsbot.ErrSerialization{Op: "scheduler store save", Err: err}
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".scheduler-*.tmp")
	if err != nil {
		return &vkteamsbot.ErrIO{Path: dir, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &vkteamsbot.ErrIO{Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &vkteamsbot.ErrIO{Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &vkteamsbot.ErrIO{Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &vkteamsbot.ErrIO{Path: s.path, Err: err}
	}
	return nil
}

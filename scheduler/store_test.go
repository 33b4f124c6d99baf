package scheduler

import (
	"path/filepath"
	"testing"
)

func TestNewStoreCreatesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "scheduler.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	tasks, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("got %d tasks, want 0", len(tasks))
	}
}

func TestStorePutAndLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "scheduler.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	task := Task{ID: "t1", ChatID: "c1", Type: TaskSendText, Text: "hi", Enabled: true, NextRun: 100}
	if err := store.Put(task); err != nil {
		t.Fatalf("Put: %v", err)
	}
	tasks, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("got %+v, want one task with ID t1", tasks)
	}
}

func TestStorePutReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "scheduler.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.Put(Task{ID: "t1", Text: "v1"})
	store.Put(Task{ID: "t1", Text: "v2"})
	tasks, _ := store.Load()
	if len(tasks) != 1 || tasks[0].Text != "v2" {
		t.Fatalf("got %+v, want one task with Text v2", tasks)
	}
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "scheduler.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.Put(Task{ID: "t1"})
	store.Put(Task{ID: "t2"})
	if err := store.Delete("t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	tasks, _ := store.Load()
	if len(tasks) != 1 || tasks[0].ID != "t2" {
		t.Fatalf("got %+v, want only t2", tasks)
	}
}

func TestStoreReplacePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.json")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Replace([]Task{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore (reopen): %v", err)
	}
	tasks, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/hack-pad/hackpadfs"
)

// Collection file names inside the flat store directory tree. Each
// collection is one JSON document: arrays for notes/tasks/settings, a
// single object for the graph.
const (
	notesFile    = "notes.json"
	tasksFile    = "tasks.json"
	graphFile    = "knowledge_graph.json"
	settingsFile = "settings.json"
)

// FlatBackend emulates the four-collection contract over an unstructured
// key-value filesystem, used when SQLite is unavailable. Every mutation
// deserializes the whole collection, applies an in-memory list operation,
// and rewrites the whole document — O(n) per write by design, acceptable
// for small personal datasets. There are no transactions; correctness of
// a read-modify-write relies on the single-writer execution model, with
// the mutex as defense for concurrent WASM callbacks.
type FlatBackend struct {
	mu sync.Mutex
	fs hackpadfs.FS
}

// NewFlatBackend creates a fallback store over fs. Collections start empty;
// files are created lazily on first write.
func NewFlatBackend(fsys hackpadfs.FS) *FlatBackend {
	return &FlatBackend{fs: fsys}
}

// Close is a no-op; the flat store holds no open handles between operations.
func (f *FlatBackend) Close() error {
	return nil
}

// readCollection loads one collection document into dst. A missing file
// leaves dst untouched (empty collection); corrupt JSON wraps ErrCorrupt.
func (f *FlatBackend) readCollection(name string, dst any) error {
	content, err := hackpadfs.ReadFile(f.fs, name)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return fmt.Errorf("flatstore: read %s: %w", name, err)
	}
	if err := json.Unmarshal(content, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return nil
}

// writeCollection rewrites one collection document in full. Quota and I/O
// failures propagate to the caller, never swallowed.
func (f *FlatBackend) writeCollection(name string, v any) error {
	content, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("flatstore: marshal %s: %w", name, err)
	}
	if err := hackpadfs.WriteFullFile(f.fs, name, content, 0o644); err != nil {
		return fmt.Errorf("flatstore: write %s: %w", name, err)
	}
	return nil
}

// removeCollection deletes a collection document, ignoring absence.
func (f *FlatBackend) removeCollection(name string) error {
	err := hackpadfs.Remove(f.fs, name)
	if err != nil && !isNotExist(err) {
		return fmt.Errorf("flatstore: remove %s: %w", name, err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// =============================================================================
// Notes
// =============================================================================

// PutNote appends or replaces a note in the serialized notes array.
func (f *FlatBackend) PutNote(note *Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var notes []*Note
	if err := f.readCollection(notesFile, &notes); err != nil {
		return err
	}

	replaced := false
	for i, n := range notes {
		if n.ID == note.ID {
			notes[i] = note
			replaced = true
			break
		}
	}
	if !replaced {
		notes = append(notes, note)
	}
	return f.writeCollection(notesFile, notes)
}

// GetNote finds a note by ID in the serialized array. Returns (nil, nil)
// when absent.
func (f *FlatBackend) GetNote(id string) (*Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var notes []*Note
	if err := f.readCollection(notesFile, &notes); err != nil {
		return nil, err
	}
	for _, n := range notes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

// ListNotes returns the whole notes collection in stored order.
func (f *FlatBackend) ListNotes() ([]*Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var notes []*Note
	if err := f.readCollection(notesFile, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// DeleteNote filters a note out of the serialized array. Missing IDs are
// a no-op and do not rewrite the file.
func (f *FlatBackend) DeleteNote(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var notes []*Note
	if err := f.readCollection(notesFile, &notes); err != nil {
		return err
	}

	kept := notes[:0]
	for _, n := range notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(notes) {
		return nil
	}
	return f.writeCollection(notesFile, kept)
}

// ClearNotes replaces the collection with an empty one.
func (f *FlatBackend) ClearNotes() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeCollection(notesFile)
}

// =============================================================================
// Tasks
// =============================================================================

// PutTask appends or replaces a task in the serialized tasks array.
func (f *FlatBackend) PutTask(task *Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var tasks []*Task
	if err := f.readCollection(tasksFile, &tasks); err != nil {
		return err
	}

	replaced := false
	for i, t := range tasks {
		if t.ID == task.ID {
			tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, task)
	}
	return f.writeCollection(tasksFile, tasks)
}

// GetTask finds a task by ID. Returns (nil, nil) when absent.
func (f *FlatBackend) GetTask(id string) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var tasks []*Task
	if err := f.readCollection(tasksFile, &tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

// ListTasks returns the whole tasks collection in stored order.
func (f *FlatBackend) ListTasks() ([]*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var tasks []*Task
	if err := f.readCollection(tasksFile, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// DeleteTask filters a task out of the serialized array.
func (f *FlatBackend) DeleteTask(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var tasks []*Task
	if err := f.readCollection(tasksFile, &tasks); err != nil {
		return err
	}

	kept := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return nil
	}
	return f.writeCollection(tasksFile, kept)
}

// ClearTasks replaces the collection with an empty one.
func (f *FlatBackend) ClearTasks() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeCollection(tasksFile)
}

// =============================================================================
// Knowledge graph
// =============================================================================

// PutGraph rewrites the single serialized graph object.
func (f *FlatBackend) PutGraph(graph *KnowledgeGraph) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeCollection(graphFile, graph)
}

// GetGraph reads the serialized graph object. Returns (nil, nil) when none
// has been persisted yet.
func (f *FlatBackend) GetGraph() (*KnowledgeGraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var graph *KnowledgeGraph
	if err := f.readCollection(graphFile, &graph); err != nil {
		return nil, err
	}
	return graph, nil
}

// ClearGraph removes the graph document.
func (f *FlatBackend) ClearGraph() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeCollection(graphFile)
}

// =============================================================================
// Settings
// =============================================================================

// PutSetting appends or replaces a setting in the serialized array.
func (f *FlatBackend) PutSetting(setting *Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var settings []*Setting
	if err := f.readCollection(settingsFile, &settings); err != nil {
		return err
	}

	replaced := false
	for i, s := range settings {
		if s.Key == setting.Key {
			settings[i] = setting
			replaced = true
			break
		}
	}
	if !replaced {
		settings = append(settings, setting)
	}
	return f.writeCollection(settingsFile, settings)
}

// GetSetting finds a setting by key. Returns (nil, nil) when absent.
func (f *FlatBackend) GetSetting(key string) (*Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var settings []*Setting
	if err := f.readCollection(settingsFile, &settings); err != nil {
		return nil, err
	}
	for _, s := range settings {
		if s.Key == key {
			return s, nil
		}
	}
	return nil, nil
}

// ListSettings returns the whole settings collection in stored order.
func (f *FlatBackend) ListSettings() ([]*Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var settings []*Setting
	if err := f.readCollection(settingsFile, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ClearSettings replaces the collection with an empty one.
func (f *FlatBackend) ClearSettings() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeCollection(settingsFile)
}

// Compile-time interface check
var _ Backend = (*FlatBackend)(nil)

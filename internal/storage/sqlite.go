package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteBackend is the structured store: transactional, indexed access to
// the four collections through database/sql over the ncruces driver.
// Thread-safe for concurrent WASM callbacks.
type SQLiteBackend struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines the four collections. Primary keys are the natural record
// keys; the secondary indexes exist to support future range/sorted queries
// even though the current query surface only uses equality and full scan.
// Recreate-if-absent is the only migration strategy (single schema version).
const schema = `
-- Notes
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    tags TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    word_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notes_title ON notes(title);
CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);
CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at);

-- Tasks
-- No foreign key on related_note_id: it is a weak reference and may dangle.
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    priority TEXT NOT NULL DEFAULT 'medium',
    completed INTEGER NOT NULL DEFAULT 0,
    due_date INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    related_note_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);

-- Knowledge graph (single record under the fixed key)
CREATE TABLE IF NOT EXISTS knowledge_graph (
    id TEXT PRIMARY KEY,
    nodes TEXT NOT NULL,
    links TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at INTEGER NOT NULL
);
`

// NewSQLiteBackend opens or creates the database at dsn and ensures the
// schema. Use ":memory:" for an in-memory store or a file path for
// persistent storage. Failures wrap ErrUnavailable so the façade can
// degrade to the fallback store.
func NewSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrUnavailable, dsn, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrUnavailable, err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Notes
// =============================================================================

// PutNote inserts or replaces a note by primary key. A single statement,
// so a single atomic transaction.
func (s *SQLiteBackend) PutNote(note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO notes (id, title, content, tags, created_at, updated_at, word_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			tags = excluded.tags,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			word_count = excluded.word_count
	`, note.ID, note.Title, note.Content, string(tagsJSON),
		note.CreatedAt, note.UpdatedAt, note.WordCount)

	return err
}

// GetNote retrieves a note by ID. Returns (nil, nil) when absent.
func (s *SQLiteBackend) GetNote(id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, title, content, tags, created_at, updated_at, word_count
		FROM notes WHERE id = ?
	`, id)

	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return note, err
}

// ListNotes returns all notes ordered by creation time.
func (s *SQLiteBackend) ListNotes() ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, content, tags, created_at, updated_at, word_count
		FROM notes ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// DeleteNote removes a note. Deleting a missing ID is a no-op.
func (s *SQLiteBackend) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM notes WHERE id = ?", id)
	return err
}

// ClearNotes empties the notes collection.
func (s *SQLiteBackend) ClearNotes() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM notes")
	return err
}

// scanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (*Note, error) {
	var note Note
	var tagsJSON sql.NullString

	if err := sc.Scan(&note.ID, &note.Title, &note.Content, &tagsJSON,
		&note.CreatedAt, &note.UpdatedAt, &note.WordCount); err != nil {
		return nil, err
	}

	note.Tags = []string{}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &note.Tags); err != nil {
			note.Tags = []string{}
		}
	}
	return &note, nil
}

// =============================================================================
// Tasks
// =============================================================================

// PutTask inserts or replaces a task by primary key.
func (s *SQLiteBackend) PutTask(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dueDate sql.NullInt64
	if task.DueDate != nil {
		dueDate = sql.NullInt64{Int64: *task.DueDate, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (id, title, description, priority, completed, due_date,
			created_at, updated_at, related_note_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			priority = excluded.priority,
			completed = excluded.completed,
			due_date = excluded.due_date,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			related_note_id = excluded.related_note_id
	`, task.ID, task.Title, task.Description, string(task.Priority),
		boolToInt(task.Completed), dueDate, task.CreatedAt, task.UpdatedAt,
		task.RelatedNoteID)

	return err
}

// GetTask retrieves a task by ID. Returns (nil, nil) when absent.
func (s *SQLiteBackend) GetTask(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, title, description, priority, completed, due_date,
			created_at, updated_at, related_note_id
		FROM tasks WHERE id = ?
	`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return task, err
}

// ListTasks returns all tasks ordered by creation time.
func (s *SQLiteBackend) ListTasks() ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, description, priority, completed, due_date,
			created_at, updated_at, related_note_id
		FROM tasks ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// DeleteTask removes a task. Deleting a missing ID is a no-op.
func (s *SQLiteBackend) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	return err
}

// ClearTasks empties the tasks collection.
func (s *SQLiteBackend) ClearTasks() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM tasks")
	return err
}

func scanTask(sc scanner) (*Task, error) {
	var task Task
	var description, relatedNoteID, priority sql.NullString
	var completed int
	var dueDate sql.NullInt64

	if err := sc.Scan(&task.ID, &task.Title, &description, &priority,
		&completed, &dueDate, &task.CreatedAt, &task.UpdatedAt,
		&relatedNoteID); err != nil {
		return nil, err
	}

	task.Description = description.String
	task.Priority = Priority(priority.String)
	task.Completed = completed != 0
	task.RelatedNoteID = relatedNoteID.String
	if dueDate.Valid {
		task.DueDate = &dueDate.Int64
	}
	return &task, nil
}

// =============================================================================
// Knowledge graph
// =============================================================================

// PutGraph upserts the single graph record under GraphKey.
func (s *SQLiteBackend) PutGraph(graph *KnowledgeGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodesJSON, err := json.Marshal(graph.Nodes)
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	linksJSON, err := json.Marshal(graph.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO knowledge_graph (id, nodes, links, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nodes = excluded.nodes,
			links = excluded.links,
			updated_at = excluded.updated_at
	`, GraphKey, string(nodesJSON), string(linksJSON), graph.UpdatedAt)

	return err
}

// GetGraph retrieves the graph record. Returns (nil, nil) when none has
// been persisted yet.
func (s *SQLiteBackend) GetGraph() (*KnowledgeGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodesJSON, linksJSON string
	var graph KnowledgeGraph

	err := s.db.QueryRow(`
		SELECT nodes, links, updated_at FROM knowledge_graph WHERE id = ?
	`, GraphKey).Scan(&nodesJSON, &linksJSON, &graph.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	graph.Nodes = []GraphNode{}
	graph.Links = []GraphLink{}
	if err := json.Unmarshal([]byte(nodesJSON), &graph.Nodes); err != nil {
		return nil, fmt.Errorf("%w: graph nodes: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal([]byte(linksJSON), &graph.Links); err != nil {
		return nil, fmt.Errorf("%w: graph links: %v", ErrCorrupt, err)
	}
	return &graph, nil
}

// ClearGraph removes the graph record.
func (s *SQLiteBackend) ClearGraph() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM knowledge_graph")
	return err
}

// =============================================================================
// Settings
// =============================================================================

// PutSetting inserts or replaces a setting by key. The value is stored as
// JSON text.
func (s *SQLiteBackend) PutSetting(setting *Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueJSON, err := json.Marshal(setting.Value)
	if err != nil {
		return fmt.Errorf("marshal setting value: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, setting.Key, string(valueJSON), setting.UpdatedAt)

	return err
}

// GetSetting retrieves a setting by key. Returns (nil, nil) when absent.
func (s *SQLiteBackend) GetSetting(key string) (*Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var setting Setting
	var valueJSON sql.NullString

	err := s.db.QueryRow(`
		SELECT key, value, updated_at FROM settings WHERE key = ?
	`, key).Scan(&setting.Key, &valueJSON, &setting.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if valueJSON.Valid && valueJSON.String != "" {
		if err := json.Unmarshal([]byte(valueJSON.String), &setting.Value); err != nil {
			return nil, fmt.Errorf("%w: setting %q: %v", ErrCorrupt, key, err)
		}
	}
	return &setting, nil
}

// ListSettings returns all settings ordered by key.
func (s *SQLiteBackend) ListSettings() ([]*Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*Setting
	for rows.Next() {
		var setting Setting
		var valueJSON sql.NullString
		if err := rows.Scan(&setting.Key, &valueJSON, &setting.UpdatedAt); err != nil {
			return nil, err
		}
		if valueJSON.Valid && valueJSON.String != "" {
			if err := json.Unmarshal([]byte(valueJSON.String), &setting.Value); err != nil {
				return nil, fmt.Errorf("%w: setting %q: %v", ErrCorrupt, setting.Key, err)
			}
		}
		settings = append(settings, &setting)
	}
	return settings, rows.Err()
}

// ClearSettings empties the settings collection.
func (s *SQLiteBackend) ClearSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM settings")
	return err
}

// =============================================================================
// Helpers
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface check
var _ Backend = (*SQLiteBackend)(nil)

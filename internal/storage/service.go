package storage

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hack-pad/hackpadfs"
)

// Config selects the backends a Service may use.
type Config struct {
	// SQLiteDSN is the structured-store data source: ":memory:" or a file
	// path. Empty disables the structured store entirely (always fallback).
	SQLiteDSN string

	// FallbackFS hosts the flat JSON collection files when the structured
	// store cannot be opened. Nil disables the fallback.
	FallbackFS hackpadfs.FS
}

// Service is the storage façade: the only surface the rest of the
// application calls. It owns the selected backend for its whole lifetime
// and hides which engine is active; after construction no method branches
// on backend identity. Instances are constructed explicitly and passed
// down — there is no package-level singleton.
type Service struct {
	backend  Backend
	log      *log.Logger
	degraded bool
}

// Open selects a backend once at startup: it attempts the structured
// SQLite store first and, on failure, permanently degrades to the flat
// fallback store for the lifetime of the service. There is no
// retry-and-promote. The degradation is logged, never returned as an
// error; Open fails only when neither backend is available.
func Open(cfg Config, logger *log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.Default()
	}

	if cfg.SQLiteDSN != "" {
		backend, err := NewSQLiteBackend(cfg.SQLiteDSN)
		if err == nil {
			logger.Debug("storage opened", "backend", "sqlite", "dsn", cfg.SQLiteDSN)
			return &Service{backend: backend, log: logger}, nil
		}
		logger.Warn("structured store unavailable, degrading to flat fallback", "err", err)
	}

	if cfg.FallbackFS == nil {
		return nil, fmt.Errorf("%w: no backend configured", ErrUnavailable)
	}
	logger.Debug("storage opened", "backend", "flatfile")
	return &Service{backend: NewFlatBackend(cfg.FallbackFS), log: logger, degraded: true}, nil
}

// NewService wraps an already-constructed backend. Used by tests and by
// callers that manage backend selection themselves.
func NewService(backend Backend, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{backend: backend, log: logger}
}

// Degraded reports whether the service fell back to the flat store at
// startup. This is an indicator for the UI layer, not a failure.
func (s *Service) Degraded() bool {
	return s.degraded
}

// Close releases the active backend.
func (s *Service) Close() error {
	return s.backend.Close()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// =============================================================================
// Notes
// =============================================================================

// SaveNote normalizes and persists a note, returning the stored record.
// An absent ID gets a fresh one; WordCount and UpdatedAt are recomputed on
// every save. Partial update is a caller responsibility: read, modify,
// save the full record.
func (s *Service) SaveNote(note *Note) (*Note, error) {
	normalizeNote(note, nowMillis())
	if err := s.backend.PutNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

// GetNote retrieves a note by ID. Returns (nil, nil) when absent.
func (s *Service) GetNote(id string) (*Note, error) {
	return s.backend.GetNote(id)
}

// ListNotes returns all persisted notes.
func (s *Service) ListNotes() ([]*Note, error) {
	return s.backend.ListNotes()
}

// DeleteNote removes a note. A missing ID is a silent no-op.
func (s *Service) DeleteNote(id string) error {
	return s.backend.DeleteNote(id)
}

// SearchNotes returns notes whose title, content, or any tag contains the
// query, case-insensitively (OR semantics across the three fields). An
// empty query matches every note.
func (s *Service) SearchNotes(query string) ([]*Note, error) {
	notes, err := s.backend.ListNotes()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matched []*Note
	for _, note := range notes {
		if noteMatches(note, q) {
			matched = append(matched, note)
		}
	}
	return matched, nil
}

func noteMatches(note *Note, q string) bool {
	if strings.Contains(strings.ToLower(note.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(note.Content), q) {
		return true
	}
	for _, tag := range note.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// =============================================================================
// Tasks
// =============================================================================

// SaveTask normalizes and persists a task, returning the stored record.
func (s *Service) SaveTask(task *Task) (*Task, error) {
	normalizeTask(task, nowMillis())
	if err := s.backend.PutTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves a task by ID. Returns (nil, nil) when absent.
func (s *Service) GetTask(id string) (*Task, error) {
	return s.backend.GetTask(id)
}

// ListTasks returns all persisted tasks.
func (s *Service) ListTasks() ([]*Task, error) {
	return s.backend.ListTasks()
}

// DeleteTask removes a task. A missing ID is a silent no-op.
func (s *Service) DeleteTask(id string) error {
	return s.backend.DeleteTask(id)
}

// SetTaskCompleted is a read-modify-write of the completed flag. Returns
// (nil, nil) when the ID is absent. UpdatedAt is strictly greater than the
// previous value even when the clock has not advanced a millisecond.
func (s *Service) SetTaskCompleted(id string, completed bool) (*Task, error) {
	task, err := s.backend.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	prev := task.UpdatedAt
	task.Completed = completed
	task.UpdatedAt = nowMillis()
	if task.UpdatedAt <= prev {
		task.UpdatedAt = prev + 1
	}
	if err := s.backend.PutTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// =============================================================================
// Knowledge graph
// =============================================================================

// SaveKnowledgeGraph upserts the single graph record. Nil node/link
// sequences are stored as empty ones.
func (s *Service) SaveKnowledgeGraph(graph *KnowledgeGraph) (*KnowledgeGraph, error) {
	if graph.Nodes == nil {
		graph.Nodes = []GraphNode{}
	}
	if graph.Links == nil {
		graph.Links = []GraphLink{}
	}
	graph.UpdatedAt = nowMillis()
	if err := s.backend.PutGraph(graph); err != nil {
		return nil, err
	}
	return graph, nil
}

// KnowledgeGraph returns the persisted graph, or the empty default when
// none has been saved yet. The read never creates a stored record.
func (s *Service) KnowledgeGraph() (*KnowledgeGraph, error) {
	graph, err := s.backend.GetGraph()
	if err != nil {
		return nil, err
	}
	if graph == nil {
		return EmptyGraph(), nil
	}
	return graph, nil
}

// =============================================================================
// Settings
// =============================================================================

// SaveSetting upserts a configuration value under key.
func (s *Service) SaveSetting(key string, value any) (*Setting, error) {
	setting := &Setting{Key: key, Value: value, UpdatedAt: nowMillis()}
	if err := s.backend.PutSetting(setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// Setting returns the stored value for key, or def when no such setting
// exists. Absence is never an error.
func (s *Service) Setting(key string, def any) (any, error) {
	setting, err := s.backend.GetSetting(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return def, nil
	}
	return setting.Value, nil
}

// =============================================================================
// Aggregates and maintenance
// =============================================================================

// Stats folds note and task counts into a read-only aggregate.
func (s *Service) Stats() (*Stats, error) {
	notes, err := s.backend.ListNotes()
	if err != nil {
		return nil, err
	}
	tasks, err := s.backend.ListTasks()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalNotes: len(notes),
		TotalTasks: len(tasks),
	}
	for _, note := range notes {
		stats.TotalWords += note.WordCount
	}
	for _, task := range tasks {
		if task.Completed {
			stats.CompletedTasks++
		}
	}
	if stats.TotalTasks > 0 {
		rate := float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
		stats.CompletionRate = int(math.Round(rate))
	}
	return stats, nil
}

// ClearAll empties all four collections. Irreversible.
func (s *Service) ClearAll() error {
	if err := s.backend.ClearNotes(); err != nil {
		return err
	}
	if err := s.backend.ClearTasks(); err != nil {
		return err
	}
	if err := s.backend.ClearGraph(); err != nil {
		return err
	}
	if err := s.backend.ClearSettings(); err != nil {
		return err
	}
	s.log.Info("cleared all collections")
	return nil
}

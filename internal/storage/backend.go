package storage

import "errors"

var (
	// ErrUnavailable indicates the structured backend could not be opened.
	// The façade recovers from it by degrading to the flat fallback store;
	// callers only ever see it if the fallback cannot be opened either.
	ErrUnavailable = errors.New("storage backend unavailable")

	// ErrCorrupt indicates stored collection data could not be parsed.
	ErrCorrupt = errors.New("corrupt collection data")

	// ErrInvalidImport indicates an import document without the required
	// data section.
	ErrInvalidImport = errors.New("import document missing data section")
)

// Backend is the uniform four-collection contract both storage engines
// implement. Every method is a single logical operation against exactly
// one collection; cross-collection atomicity is not part of the contract.
//
// Lookups of a missing record return (nil, nil), never an error, and
// deletes of a missing ID are silent no-ops.
type Backend interface {
	// Notes
	PutNote(note *Note) error
	GetNote(id string) (*Note, error)
	ListNotes() ([]*Note, error)
	DeleteNote(id string) error
	ClearNotes() error

	// Tasks
	PutTask(task *Task) error
	GetTask(id string) (*Task, error)
	ListTasks() ([]*Task, error)
	DeleteTask(id string) error
	ClearTasks() error

	// Knowledge graph (single record under GraphKey; put is an upsert)
	PutGraph(graph *KnowledgeGraph) error
	GetGraph() (*KnowledgeGraph, error)
	ClearGraph() error

	// Settings
	PutSetting(setting *Setting) error
	GetSetting(key string) (*Setting, error)
	ListSettings() ([]*Setting, error)
	ClearSettings() error

	// Lifecycle
	Close() error
}

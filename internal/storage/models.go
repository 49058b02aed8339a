// Package storage is the local persistence layer for notekeep. It keeps
// four collections (notes, tasks, knowledge_graph, settings) behind a
// single Service façade, backed either by a transactional SQLite store or
// by a flat JSON-per-collection file store when SQLite is unavailable.
package storage

// GraphKey is the fixed primary key of the single knowledge-graph record.
// "Create" and "update" of the graph are the same upsert.
const GraphKey = "main_graph"

// Priority is the task urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the three known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Note is a persisted user note. WordCount always equals the rune length
// of Content at last save; UpdatedAt is monotonically non-decreasing
// across saves of the same ID.
type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
	WordCount int      `json:"wordCount"`
}

// Task is a persisted study task. RelatedNoteID is a weak reference: it
// may dangle if the referenced note is deleted.
type Task struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      Priority `json:"priority"`
	Completed     bool     `json:"completed"`
	DueDate       *int64   `json:"dueDate,omitempty"`
	CreatedAt     int64    `json:"createdAt"`
	UpdatedAt     int64    `json:"updatedAt"`
	RelatedNoteID string   `json:"relatedNoteId,omitempty"`
}

// GraphNode is one concept or note node in the knowledge graph.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind,omitempty"`
}

// GraphLink is a directed relation between two graph nodes.
type GraphLink struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

// KnowledgeGraph is the single graph record. At most one instance is ever
// persisted, under GraphKey.
type KnowledgeGraph struct {
	Nodes     []GraphNode `json:"nodes"`
	Links     []GraphLink `json:"links"`
	UpdatedAt int64       `json:"updatedAt,omitempty"`
}

// EmptyGraph returns the default graph value handed out when none has been
// saved yet. It is a value, not a stored record.
func EmptyGraph() *KnowledgeGraph {
	return &KnowledgeGraph{Nodes: []GraphNode{}, Links: []GraphLink{}}
}

// Setting is a generic configuration entry. Value holds any
// JSON-serializable value; after a round trip through a backend, numbers
// decode as float64 and objects as map[string]any.
type Setting struct {
	Key       string `json:"key"`
	Value     any    `json:"value"`
	UpdatedAt int64  `json:"updatedAt"`
}

// ExportVersion is the snapshot document version accepted by Import.
const ExportVersion = "1.0"

// ExportData is the payload of an export snapshot.
type ExportData struct {
	Notes          []*Note         `json:"notes"`
	Tasks          []*Task         `json:"tasks"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledgeGraph"`
	Settings       []*Setting      `json:"settings"`
}

// ExportDocument is the portable snapshot of the full persisted state.
// The layout is the wire format: a round trip through Export and Import
// reproduces the same note/task set (timestamps may be refreshed by
// re-normalization on import).
type ExportDocument struct {
	Version    string      `json:"version"`
	ExportDate string      `json:"exportDate"`
	Data       *ExportData `json:"data"`
}

// Stats is a derived read-only aggregate over notes and tasks.
// CompletionRate is round(completed/total*100), 0 when there are no tasks.
type Stats struct {
	TotalNotes     int `json:"totalNotes"`
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	TotalWords     int `json:"totalWords"`
	CompletionRate int `json:"completionRate"`
}

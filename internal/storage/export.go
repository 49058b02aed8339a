package storage

import (
	"fmt"
	"time"
)

// Export collects all four collections into one versioned snapshot. Each
// collection read is independent; the snapshot is not a cross-collection
// transaction, which is fine under the single-writer execution model.
func (s *Service) Export() (*ExportDocument, error) {
	notes, err := s.backend.ListNotes()
	if err != nil {
		return nil, err
	}
	tasks, err := s.backend.ListTasks()
	if err != nil {
		return nil, err
	}
	graph, err := s.KnowledgeGraph()
	if err != nil {
		return nil, err
	}
	settings, err := s.backend.ListSettings()
	if err != nil {
		return nil, err
	}

	if notes == nil {
		notes = []*Note{}
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	if settings == nil {
		settings = []*Setting{}
	}

	return &ExportDocument{
		Version:    ExportVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Data: &ExportData{
			Notes:          notes,
			Tasks:          tasks,
			KnowledgeGraph: graph,
			Settings:       settings,
		},
	}, nil
}

// Import replays a snapshot through the normal save path, so normalization
// and timestamp assignment apply uniformly to imported records. The first
// failing record aborts the whole import; writes already applied from a
// partially-processed batch are NOT rolled back. That matches the behavior
// this layer was specified against and is a documented limitation rather
// than a bug to fix here.
func (s *Service) Import(doc *ExportDocument) error {
	if doc == nil || doc.Data == nil {
		return ErrInvalidImport
	}

	for _, note := range doc.Data.Notes {
		if _, err := s.SaveNote(note); err != nil {
			return fmt.Errorf("import note %q: %w", note.ID, err)
		}
	}
	for _, task := range doc.Data.Tasks {
		if _, err := s.SaveTask(task); err != nil {
			return fmt.Errorf("import task %q: %w", task.ID, err)
		}
	}
	if g := doc.Data.KnowledgeGraph; g != nil {
		if _, err := s.SaveKnowledgeGraph(g); err != nil {
			return fmt.Errorf("import knowledge graph: %w", err)
		}
	}
	for _, setting := range doc.Data.Settings {
		if _, err := s.SaveSetting(setting.Key, setting.Value); err != nil {
			return fmt.Errorf("import setting %q: %w", setting.Key, err)
		}
	}

	s.log.Info("import complete",
		"notes", len(doc.Data.Notes),
		"tasks", len(doc.Data.Tasks),
		"settings", len(doc.Data.Settings))
	return nil
}

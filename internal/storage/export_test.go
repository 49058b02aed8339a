package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportEmptyStore(t *testing.T) {
	runForAllServices(t, "ExportEmpty", func(t *testing.T, s *Service) {
		doc, err := s.Export()
		require.NoError(t, err)

		assert.Equal(t, ExportVersion, doc.Version)
		require.NotNil(t, doc.Data)
		assert.NotNil(t, doc.Data.Notes, "collections serialize as [], never null")
		assert.NotNil(t, doc.Data.Tasks)
		assert.NotNil(t, doc.Data.Settings)
		require.NotNil(t, doc.Data.KnowledgeGraph)
		assert.Empty(t, doc.Data.KnowledgeGraph.Nodes)

		exportedAt, err := time.Parse(time.RFC3339, doc.ExportDate)
		require.NoError(t, err, "exportDate must be RFC 3339")
		assert.WithinDuration(t, time.Now(), exportedAt, time.Minute)

		// The wire format has no null collections
		raw, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), `"notes":null`)
		assert.NotContains(t, string(raw), `"settings":null`)
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	runForAllServices(t, "RoundTrip", func(t *testing.T, s *Service) {
		note, err := s.SaveNote(&Note{Title: "Cell biology", Content: "mitochondria", Tags: []string{"bio"}})
		require.NoError(t, err)
		task, err := s.SaveTask(&Task{Title: "Review", Priority: PriorityHigh})
		require.NoError(t, err)
		_, err = s.SaveKnowledgeGraph(&KnowledgeGraph{
			Nodes: []GraphNode{{ID: "n1", Label: "Cell"}},
			Links: []GraphLink{{Source: "n1", Target: "n1", Relation: "SELF"}},
		})
		require.NoError(t, err)
		_, err = s.SaveSetting("theme", "dark")
		require.NoError(t, err)

		doc, err := s.Export()
		require.NoError(t, err)

		// Serialize and reparse: imports normally arrive as JSON text
		raw, err := json.Marshal(doc)
		require.NoError(t, err)
		var parsed ExportDocument
		require.NoError(t, json.Unmarshal(raw, &parsed))

		require.NoError(t, s.ClearAll())
		notes, err := s.ListNotes()
		require.NoError(t, err)
		require.Empty(t, notes)

		require.NoError(t, s.Import(&parsed))

		restored, err := s.GetNote(note.ID)
		require.NoError(t, err)
		require.NotNil(t, restored)
		assert.Equal(t, note.Title, restored.Title)
		assert.Equal(t, note.Content, restored.Content)
		assert.Equal(t, note.Tags, restored.Tags)
		assert.Equal(t, note.CreatedAt, restored.CreatedAt, "import preserves createdAt")

		restoredTask, err := s.GetTask(task.ID)
		require.NoError(t, err)
		require.NotNil(t, restoredTask)
		assert.Equal(t, PriorityHigh, restoredTask.Priority)

		graph, err := s.KnowledgeGraph()
		require.NoError(t, err)
		assert.Len(t, graph.Nodes, 1)
		assert.Len(t, graph.Links, 1)

		theme, err := s.Setting("theme", nil)
		require.NoError(t, err)
		assert.Equal(t, "dark", theme)
	})
}

func TestImportMergesIntoExistingData(t *testing.T) {
	runForAllServices(t, "ImportMerges", func(t *testing.T, s *Service) {
		existing, err := s.SaveNote(&Note{Title: "Kept"})
		require.NoError(t, err)

		doc := &ExportDocument{
			Version: ExportVersion,
			Data: &ExportData{
				Notes: []*Note{{ID: "imported-1", Title: "Imported"}},
			},
		}
		require.NoError(t, s.Import(doc))

		notes, err := s.ListNotes()
		require.NoError(t, err)
		assert.Len(t, notes, 2, "import replays saves, it does not wipe first")

		kept, err := s.GetNote(existing.ID)
		require.NoError(t, err)
		require.NotNil(t, kept)
	})
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	runForAllServices(t, "ImportInvalid", func(t *testing.T, s *Service) {
		require.ErrorIs(t, s.Import(nil), ErrInvalidImport)
		require.ErrorIs(t, s.Import(&ExportDocument{Version: ExportVersion}), ErrInvalidImport)
	})
}

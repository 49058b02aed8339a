package storage

import (
	"io"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// runForAllServices runs a test against a Service over each backend.
// Every façade property must hold identically on both.
func runForAllServices(t *testing.T, testName string, testFn func(t *testing.T, s *Service)) {
	factories := map[string]backendFactory{
		"SQLite":   sqliteFactory,
		"FlatFile": flatFactory,
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			b, err := factory()
			require.NoError(t, err)
			s := NewService(b, testLogger())
			defer s.Close()
			testFn(t, s)
		})
	}
}

// =============================================================================
// Backend selection
// =============================================================================

func TestOpenSelectsSQLite(t *testing.T) {
	s, err := Open(Config{SQLiteDSN: ":memory:"}, testLogger())
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.Degraded())
}

func TestOpenFallsBackWhenSQLiteUnavailable(t *testing.T) {
	fs, err := mem.NewFS()
	require.NoError(t, err)

	// A database path inside a directory that does not exist cannot be opened.
	dsn := filepath.Join(t.TempDir(), "missing", "sub", "notekeep.db")
	s, err := Open(Config{SQLiteDSN: dsn, FallbackFS: fs}, testLogger())
	require.NoError(t, err, "open failure must degrade, not fail")
	defer s.Close()
	assert.True(t, s.Degraded())

	// The degraded service is fully functional.
	saved, err := s.SaveNote(&Note{Title: "Still works"})
	require.NoError(t, err)
	got, err := s.GetNote(saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Still works", got.Title)
}

func TestOpenFailsWithoutAnyBackend(t *testing.T) {
	_, err := Open(Config{}, testLogger())
	require.ErrorIs(t, err, ErrUnavailable)
}

// =============================================================================
// Notes
// =============================================================================

func TestSaveNoteAssignsIDAndDerivedFields(t *testing.T) {
	runForAllServices(t, "SaveNoteDefaults", func(t *testing.T, s *Service) {
		saved, err := s.SaveNote(&Note{Content: "光合作用 converts light"})
		require.NoError(t, err)

		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, "Untitled Note", saved.Title)
		assert.NotNil(t, saved.Tags)
		assert.Equal(t, utf8.RuneCountInString("光合作用 converts light"), saved.WordCount)
		assert.NotZero(t, saved.CreatedAt)
		assert.GreaterOrEqual(t, saved.UpdatedAt, saved.CreatedAt)

		got, err := s.GetNote(saved.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, saved.WordCount, got.WordCount)
	})
}

func TestSaveNotePreservesIDAndCreatedAt(t *testing.T) {
	runForAllServices(t, "SaveNotePreserves", func(t *testing.T, s *Service) {
		saved, err := s.SaveNote(&Note{Title: "First", Content: "v1"})
		require.NoError(t, err)
		id, createdAt := saved.ID, saved.CreatedAt

		time.Sleep(2 * time.Millisecond)
		saved.Content = "v2 with more words"
		again, err := s.SaveNote(saved)
		require.NoError(t, err)

		assert.Equal(t, id, again.ID, "id is immutable after first assignment")
		assert.Equal(t, createdAt, again.CreatedAt)
		assert.Greater(t, again.UpdatedAt, createdAt)
		assert.Equal(t, len([]rune("v2 with more words")), again.WordCount)
	})
}

func TestSearchNotes(t *testing.T) {
	runForAllServices(t, "SearchNotes", func(t *testing.T, s *Service) {
		_, err := s.SaveNote(&Note{Title: "Alpha", Content: "about cats"})
		require.NoError(t, err)
		_, err = s.SaveNote(&Note{Title: "Beta", Content: "about dogs", Tags: []string{"feline"}})
		require.NoError(t, err)

		// Content match, case-insensitive
		results, err := s.SearchNotes("CAT")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Alpha", results[0].Title)

		// Tag match
		results, err = s.SearchNotes("feline")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Beta", results[0].Title)

		// Title match
		results, err = s.SearchNotes("alph")
		require.NoError(t, err)
		require.Len(t, results, 1)

		// No match
		results, err = s.SearchNotes("zebra")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestDeleteNoteMissingIsNoOp(t *testing.T) {
	runForAllServices(t, "DeleteNoteMissing", func(t *testing.T, s *Service) {
		saved, err := s.SaveNote(&Note{Title: "Survivor"})
		require.NoError(t, err)

		require.NoError(t, s.DeleteNote("nonexistent"))

		notes, err := s.ListNotes()
		require.NoError(t, err)
		assert.Len(t, notes, 1)

		require.NoError(t, s.DeleteNote(saved.ID))
		notes, err = s.ListNotes()
		require.NoError(t, err)
		for _, n := range notes {
			assert.NotEqual(t, saved.ID, n.ID)
		}
	})
}

// =============================================================================
// Tasks
// =============================================================================

func TestSaveTaskDefaults(t *testing.T) {
	runForAllServices(t, "SaveTaskDefaults", func(t *testing.T, s *Service) {
		saved, err := s.SaveTask(&Task{Priority: "urgent"})
		require.NoError(t, err)

		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, "Untitled Task", saved.Title)
		assert.Equal(t, PriorityMedium, saved.Priority, "unknown priority collapses to medium")
		assert.False(t, saved.Completed)
	})
}

func TestSetTaskCompleted(t *testing.T) {
	runForAllServices(t, "SetTaskCompleted", func(t *testing.T, s *Service) {
		saved, err := s.SaveTask(&Task{Title: "Finish summary"})
		require.NoError(t, err)
		before := saved.UpdatedAt

		task, err := s.SetTaskCompleted(saved.ID, true)
		require.NoError(t, err)
		require.NotNil(t, task)
		assert.True(t, task.Completed)
		assert.Greater(t, task.UpdatedAt, before, "status change must strictly advance updatedAt")

		got, err := s.GetTask(saved.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Completed)
	})
}

func TestSetTaskCompletedMissingIsNoOp(t *testing.T) {
	runForAllServices(t, "SetTaskCompletedMissing", func(t *testing.T, s *Service) {
		task, err := s.SetTaskCompleted("nonexistent", true)
		require.NoError(t, err)
		assert.Nil(t, task)

		tasks, err := s.ListTasks()
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

// =============================================================================
// Knowledge graph
// =============================================================================

func TestKnowledgeGraphDefaultIsIdempotent(t *testing.T) {
	runForAllServices(t, "GraphDefault", func(t *testing.T, s *Service) {
		for i := 0; i < 3; i++ {
			graph, err := s.KnowledgeGraph()
			require.NoError(t, err)
			require.NotNil(t, graph)
			assert.Empty(t, graph.Nodes)
			assert.Empty(t, graph.Links)
		}

		// Repeated reads must not have created a stored record
		stored, err := s.backend.GetGraph()
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}

func TestSaveKnowledgeGraphUpserts(t *testing.T) {
	runForAllServices(t, "GraphUpsert", func(t *testing.T, s *Service) {
		_, err := s.SaveKnowledgeGraph(&KnowledgeGraph{
			Nodes: []GraphNode{{ID: "n1", Label: "Mitosis"}},
		})
		require.NoError(t, err)

		graph, err := s.KnowledgeGraph()
		require.NoError(t, err)
		require.Len(t, graph.Nodes, 1)
		assert.NotNil(t, graph.Links, "nil links stored as empty")

		_, err = s.SaveKnowledgeGraph(&KnowledgeGraph{
			Nodes: []GraphNode{{ID: "n1", Label: "Mitosis"}, {ID: "n2", Label: "Meiosis"}},
			Links: []GraphLink{{Source: "n1", Target: "n2"}},
		})
		require.NoError(t, err)

		graph, err = s.KnowledgeGraph()
		require.NoError(t, err)
		assert.Len(t, graph.Nodes, 2)
		assert.Len(t, graph.Links, 1)
	})
}

// =============================================================================
// Settings
// =============================================================================

func TestSettingDefault(t *testing.T) {
	runForAllServices(t, "SettingDefault", func(t *testing.T, s *Service) {
		value, err := s.Setting("theme", "light")
		require.NoError(t, err)
		assert.Equal(t, "light", value, "absent key yields the default")

		_, err = s.SaveSetting("theme", "dark")
		require.NoError(t, err)

		value, err = s.Setting("theme", "light")
		require.NoError(t, err)
		assert.Equal(t, "dark", value)
	})
}

// =============================================================================
// Stats
// =============================================================================

func TestStats(t *testing.T) {
	runForAllServices(t, "Stats", func(t *testing.T, s *Service) {
		// Empty store: everything zero, rate defined as 0
		stats, err := s.Stats()
		require.NoError(t, err)
		assert.Zero(t, stats.TotalNotes)
		assert.Zero(t, stats.CompletionRate)

		_, err = s.SaveNote(&Note{Title: "A", Content: "four rune text"})
		require.NoError(t, err)
		_, err = s.SaveNote(&Note{Title: "B", Content: "hi"})
		require.NoError(t, err)

		for _, done := range []bool{true, true, false} {
			task, err := s.SaveTask(&Task{Title: "T"})
			require.NoError(t, err)
			if done {
				_, err = s.SetTaskCompleted(task.ID, true)
				require.NoError(t, err)
			}
		}

		stats, err = s.Stats()
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalNotes)
		assert.Equal(t, 3, stats.TotalTasks)
		assert.Equal(t, 2, stats.CompletedTasks)
		assert.Equal(t, 67, stats.CompletionRate, "2/3 rounds to 67")
		assert.Equal(t, len([]rune("four rune text"))+len([]rune("hi")), stats.TotalWords)
	})
}

// =============================================================================
// Clear
// =============================================================================

func TestClearAll(t *testing.T) {
	runForAllServices(t, "ClearAll", func(t *testing.T, s *Service) {
		_, err := s.SaveNote(&Note{Title: "N"})
		require.NoError(t, err)
		_, err = s.SaveTask(&Task{Title: "T"})
		require.NoError(t, err)
		_, err = s.SaveKnowledgeGraph(&KnowledgeGraph{Nodes: []GraphNode{{ID: "n"}}})
		require.NoError(t, err)
		_, err = s.SaveSetting("k", "v")
		require.NoError(t, err)

		require.NoError(t, s.ClearAll())

		notes, err := s.ListNotes()
		require.NoError(t, err)
		assert.Empty(t, notes)

		tasks, err := s.ListTasks()
		require.NoError(t, err)
		assert.Empty(t, tasks)

		graph, err := s.KnowledgeGraph()
		require.NoError(t, err)
		assert.Empty(t, graph.Nodes)

		value, err := s.Setting("k", nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

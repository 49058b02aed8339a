package storage

import (
	"unicode/utf8"

	"github.com/kittclouds/notekeep/pkg/ident"
)

// Default titles assigned when a record arrives without one.
const (
	defaultNoteTitle = "Untitled Note"
	defaultTaskTitle = "Untitled Task"
)

// normalizeNote fills in defaults before a note write: a fresh ID when
// absent, title/tags defaults, timestamp assignment, and the word count
// recomputed from the content length on every save (never maintained
// incrementally). Invoked only by the Service.
func normalizeNote(note *Note, now int64) {
	if note.ID == "" {
		note.ID = ident.New()
	}
	if note.Title == "" {
		note.Title = defaultNoteTitle
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	if note.CreatedAt == 0 {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	note.WordCount = utf8.RuneCountInString(note.Content)
}

// normalizeTask fills in defaults before a task write. An unknown priority
// collapses to medium rather than failing the save.
func normalizeTask(task *Task, now int64) {
	if task.ID == "" {
		task.ID = ident.New()
	}
	if task.Title == "" {
		task.Title = defaultTaskTitle
	}
	if !task.Priority.Valid() {
		task.Priority = PriorityMedium
	}
	if task.CreatedAt == 0 {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
}

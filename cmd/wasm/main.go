//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/hack-pad/hackpadfs/indexeddb"

	"github.com/kittclouds/notekeep/internal/logger"
	"github.com/kittclouds/notekeep/internal/storage"
)

// Version info
const Version = "0.1.0"

// Global state: the storage service shared by all exported callbacks.
// The page is single-threaded, so callbacks never truly interleave; the
// backends carry their own locks regardless.
var svc *storage.Service

func main() {
	println("[notekeep] WASM ready v" + Version)

	js.Global().Set("NoteKeep", js.ValueOf(map[string]interface{}{
		"version":    js.FuncOf(getVersion),
		"initialize": js.FuncOf(initialize),
		"degraded":   js.FuncOf(degraded),

		"saveNote":    js.FuncOf(saveNote),
		"getNotes":    js.FuncOf(getNotes),
		"getNote":     js.FuncOf(getNote),
		"deleteNote":  js.FuncOf(deleteNote),
		"searchNotes": js.FuncOf(searchNotes),

		"saveTask":         js.FuncOf(saveTask),
		"getTasks":         js.FuncOf(getTasks),
		"getTask":          js.FuncOf(getTask),
		"deleteTask":       js.FuncOf(deleteTask),
		"updateTaskStatus": js.FuncOf(updateTaskStatus),

		"saveKnowledgeGraph": js.FuncOf(saveKnowledgeGraph),
		"getKnowledgeGraph":  js.FuncOf(getKnowledgeGraph),

		"saveSetting": js.FuncOf(saveSetting),
		"getSetting":  js.FuncOf(getSetting),

		"exportData":      js.FuncOf(exportData),
		"importData":      js.FuncOf(importData),
		"clearAllData":    js.FuncOf(clearAllData),
		"getStorageStats": js.FuncOf(getStorageStats),
	}))

	select {}
}

// initialize opens the storage service.
// Args: [dsn string (optional)] — pass ":memory:" for a transient SQLite
// store; omit (or pass "") to persist through the IndexedDB-backed flat
// store, which survives page reloads.
func initialize(this js.Value, args []js.Value) interface{} {
	dsn := ""
	if len(args) > 0 {
		dsn = args[0].String()
	}

	fs, err := indexeddb.NewFS(context.Background(), "notekeep", indexeddb.Options{})
	if err != nil {
		return errorResult("failed to create idb fs: " + err.Error())
	}

	if svc != nil {
		svc.Close()
	}
	svc, err = storage.Open(storage.Config{
		SQLiteDSN:  dsn,
		FallbackFS: fs,
	}, logger.New(false, nil))
	if err != nil {
		return errorResult("failed to open storage: " + err.Error())
	}

	return successResult("initialized")
}

// degraded reports whether the service fell back to the flat store.
func degraded(this js.Value, args []js.Value) interface{} {
	return svc != nil && svc.Degraded()
}

// =============================================================================
// Notes
// =============================================================================

// saveNote: [noteJSON string] -> saved note JSON
func saveNote(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: noteJSON")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}

	var note storage.Note
	if err := json.Unmarshal([]byte(args[0].String()), &note); err != nil {
		return errorResult("invalid note json: " + err.Error())
	}

	saved, err := svc.SaveNote(&note)
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(saved)
}

// getNotes: [] -> JSON array of notes
func getNotes(this js.Value, args []js.Value) interface{} {
	if svc == nil {
		return errorResult("storage not initialized")
	}
	notes, err := svc.ListNotes()
	if err != nil {
		return errorResult(err.Error())
	}
	if notes == nil {
		notes = []*storage.Note{}
	}
	return marshalResult(notes)
}

// getNote: [id string] -> note JSON or "null"
func getNote(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}
	note, err := svc.GetNote(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(note)
}

// deleteNote: [id string]
func deleteNote(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}
	if err := svc.DeleteNote(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted")
}

// searchNotes: [query string] -> JSON array of matching notes
func searchNotes(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: query")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}
	notes, err := svc.SearchNotes(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	if notes == nil {
		notes = []*storage.Note{}
	}
	return marshalResult(notes)
}

// =============================================================================
// Tasks
// =============================================================================

// saveTask: [taskJSON string] -> saved task JSON
func saveTask(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: taskJSON")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}

	var task storage.Task
	if err := json.Unmarshal([]byte(args[0].String()), &task); err != nil {
		return errorResult("invalid task json: " + err.Error())
	}

	saved, err := svc.SaveTask(&task)
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(saved)
}

// getTasks: [] -> JSON array of tasks
func getTasks(this js.Value, args []js.Value) interface{} {
	if svc == nil {
		return errorResult("storage not initialized")
	}
	tasks, err := svc.ListTasks()
	if err != nil {
		return errorResult(err.Error())
	}
	if tasks == nil {
		tasks = []*storage.Task{}
	}
	return marshalResult(tasks)
}

// getTask: [id string] -> task JSON or "null"
func getTask(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}
	task, err := svc.GetTask(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(task)
}

// deleteTask: [id string]
func deleteTask(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}
	if err := svc.DeleteTask(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted")
}

// updateTaskStatus: [id string, completed bool] -> task JSON or "null"
func updateTaskStatus(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires 2 args: id, completed")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}
	task, err := svc.SetTaskCompleted(args[0].String(), args[1].Bool())
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(task)
}

// =============================================================================
// Knowledge graph, settings, bulk
// =============================================================================

// saveKnowledgeGraph: [graphJSON string] -> saved graph JSON
func saveKnowledgeGraph(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: graphJSON")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}

	var graph storage.KnowledgeGraph
	if err := json.Unmarshal([]byte(args[0].String()), &graph); err != nil {
		return errorResult("invalid graph json: " + err.Error())
	}

	saved, err := svc.SaveKnowledgeGraph(&graph)
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(saved)
}

// getKnowledgeGraph: [] -> graph JSON (empty graph when none stored)
func getKnowledgeGraph(this js.Value, args []js.Value) interface{} {
	if svc == nil {
		return errorResult("storage not initialized")
	}
	graph, err := svc.KnowledgeGraph()
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(graph)
}

// saveSetting: [key string, valueJSON string] -> setting JSON
func saveSetting(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires 2 args: key, valueJSON")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}

	var value any
	if err := json.Unmarshal([]byte(args[1].String()), &value); err != nil {
		return errorResult("invalid value json: " + err.Error())
	}

	setting, err := svc.SaveSetting(args[0].String(), value)
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(setting)
}

// getSetting: [key string, defaultJSON string] -> value JSON
func getSetting(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1+ args: key, [defaultJSON]")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}

	var def any
	if len(args) > 1 && args[1].String() != "" {
		if err := json.Unmarshal([]byte(args[1].String()), &def); err != nil {
			return errorResult("invalid default json: " + err.Error())
		}
	}

	value, err := svc.Setting(args[0].String(), def)
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(value)
}

// exportData: [] -> snapshot JSON
func exportData(this js.Value, args []js.Value) interface{} {
	if svc == nil {
		return errorResult("storage not initialized")
	}
	doc, err := svc.Export()
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(doc)
}

// importData: [docJSON string]
func importData(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: docJSON")
	}
	if svc == nil {
		return errorResult("storage not initialized")
	}

	var doc storage.ExportDocument
	if err := json.Unmarshal([]byte(args[0].String()), &doc); err != nil {
		return errorResult("invalid document json: " + err.Error())
	}
	if err := svc.Import(&doc); err != nil {
		return errorResult(err.Error())
	}
	return successResult("imported")
}

// clearAllData: []
func clearAllData(this js.Value, args []js.Value) interface{} {
	if svc == nil {
		return errorResult("storage not initialized")
	}
	if err := svc.ClearAll(); err != nil {
		return errorResult(err.Error())
	}
	return successResult("cleared")
}

// getStorageStats: [] -> stats JSON
func getStorageStats(this js.Value, args []js.Value) interface{} {
	if svc == nil {
		return errorResult("storage not initialized")
	}
	stats, err := svc.Stats()
	if err != nil {
		return errorResult(err.Error())
	}
	return marshalResult(stats)
}

// =============================================================================
// Helpers
// =============================================================================

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

func marshalResult(v any) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(jsonBytes)
}

// Helper: Create error result
func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

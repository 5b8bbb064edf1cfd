// Package storage reads and writes the JSON backing file.
//
// The backing file (tasks.json) holds the whole task collection:
//
//	{
//	  "schema_version": 1,
//	  "next_id": 4,
//	  "tasks": [
//	    {
//	      "id": 1,
//	      "title": "Buy milk",
//	      "description": "Optional text",
//	      "priority": "low",
//	      "category": "Personal",
//	      "due_date": "2024-02-01",
//	      "completed": false,
//	      "created_at": "2024-01-01T10:00:00Z"
//	    }
//	  ]
//	}
//
// # Validation
//
// Two validation modes are supported on load:
//
// 1. JSON Schema validation (when tasks.schema.json is present):
//   - Full validation against JSON Schema draft-2020-12
//   - Covers types, required fields, the priority enum, and date formats
//
// 2. Minimal fallback validation (when no schema is available):
//   - schema_version, next_id, and tasks presence
//   - Per-record field checks, id uniqueness, completed/completed_at pairing
//
// Both modes reject the whole file on the first invalid record. Skipping
// bad records on load and then saving would silently drop user data.
//
// # Durability
//
// Saves are whole-file and atomic: content is written to a temp file in
// the same directory and renamed over the backing file. Loading a missing
// file yields an empty collection; any other failure surfaces as a
// *CorruptError and the application must not save over the file.
//
// # File format
//
// When writing, the package uses:
//   - 2-space indentation
//   - Trailing newline
//   - Stable key ordering (via JSON marshaling)
package storage

// Package storage reads and writes the JSON backing file.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/taskdeck/internal/task"
)

// SchemaVersion is the only backing file format version this build reads.
const SchemaVersion = 1

// File represents the backing file structure.
type File struct {
	SchemaVersion int         `json:"schema_version"`
	NextID        int         `json:"next_id"`
	Tasks         []task.Task `json:"tasks"`
}

// CorruptError reports an unreadable or invalid backing file. The caller
// must not proceed with an empty store when this is returned, or prior
// data would be silently overwritten on the next save.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt task file %s: %s", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Options controls load-time validation.
type Options struct {
	// SchemaPath is the path to the JSON Schema file.
	// If empty or missing, validation uses only minimal fallback checks.
	SchemaPath string
}

// Load reads the backing file at path. A missing file yields an empty
// file, not an error. Malformed JSON or semantically invalid records
// yield a *CorruptError: the whole file is rejected rather than bad
// records being skipped.
func Load(path string, opts Options) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{SchemaVersion: SchemaVersion, NextID: 1, Tasks: []task.Task{}}, nil
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &CorruptError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	if err := f.validate(data, opts); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}

	return &f, nil
}

// Save serializes the file and writes it atomically: the content goes to
// a temp file in the same directory, which is then renamed over path so a
// crash mid-write never leaves a partially written backing file.
func Save(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task file: %w", err)
	}

	// Add trailing newline
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace task file: %w", err)
	}

	return nil
}

// validate checks the file against the JSON Schema when one is available,
// falling back to minimal structural checks otherwise. The schema runs on
// the raw document so fields dropped during unmarshaling are still seen.
func (f *File) validate(raw []byte, opts Options) error {
	if opts.SchemaPath != "" {
		used, err := validateWithSchema(f, raw, opts.SchemaPath)
		if used {
			return err
		}
		// Schema not available, fall through to minimal checks.
	}
	return f.validateMinimal()
}

// validateMinimal performs structural checks without a JSON Schema.
func (f *File) validateMinimal() error {
	if f.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version: expected %d, got %d", SchemaVersion, f.SchemaVersion)
	}
	if f.NextID < 1 {
		return fmt.Errorf("next_id: must be at least 1, got %d", f.NextID)
	}
	if f.Tasks == nil {
		return fmt.Errorf("tasks: missing required field")
	}

	seen := make(map[int]bool, len(f.Tasks))
	for i := range f.Tasks {
		t := &f.Tasks[i]
		if err := t.Validate(fmt.Sprintf("tasks[%d]", i)); err != nil {
			return err
		}
		if seen[t.ID] {
			return fmt.Errorf("tasks[%d].id: duplicate id %d", i, t.ID)
		}
		seen[t.ID] = true
	}

	return nil
}

// validateWithSchema attempts JSON Schema validation. The first return
// value reports whether schema validation actually ran.
func validateWithSchema(f *File, raw []byte, schemaPath string) (bool, error) {
	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return false, nil
	}
	if _, err := os.Stat(absPath); err != nil {
		return false, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	schema, err := compiler.Compile(absPath)
	if err != nil {
		return false, nil
	}

	var fileObj interface{}
	if err := json.Unmarshal(raw, &fileObj); err != nil {
		return true, fmt.Errorf("unmarshal for validation: %w", err)
	}

	if err := schema.Validate(fileObj); err != nil {
		return true, firstSchemaError(err)
	}

	// The schema cannot express the completed/completed_at pairing or id
	// uniqueness, so the structural checks still run.
	return true, f.validateMinimal()
}

// firstSchemaError flattens a jsonschema error tree to its first leaf.
func firstSchemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return fmt.Errorf("%s: %s", jsonPointerToPath(ve.InstanceLocation), ve.Message)
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "file"
	}

	parts := strings.Split(ptr, "/")
	path := ""
	for _, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}

	return path
}

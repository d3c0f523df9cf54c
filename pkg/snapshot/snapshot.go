// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists and reloads the merged schema.SchemaSet that a
// generation run produced, so the next run's diff engine (pkg/diff) has a
// prior state to compare against.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	internaljsonschema "github.com/fluentorm/fluent/internal/jsonschema"
	"github.com/fluentorm/fluent/pkg/schema"
)

// Load reads the snapshot document at path and decodes it into a SchemaSet.
// A missing file is not an error: it is treated as the empty prior state,
// since the very first generation run has nothing to diff against.
func Load(path string) (*schema.SchemaSet, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return schema.NewSchemaSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading %q: %w", path, err)
	}

	if err := internaljsonschema.ValidateSnapshot(raw); err != nil {
		return nil, Malformed{Path: path, Reason: err.Error()}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, Malformed{Path: path, Reason: err.Error()}
	}
	if doc.Version != Version {
		return nil, VersionUnsupported{Path: path, Got: doc.Version, Want: Version}
	}

	return fromDocument(&doc), nil
}

// Save writes set to path as the canonical snapshot document, atomically:
// the document is written to a temp file in the same directory and renamed
// into place, so a crash mid-write never leaves a partial snapshot behind.
//
// Two Save calls over byte-identical SchemaSets (identical table and field
// order, since SchemaSet's own iteration order is already deterministic)
// produce byte-identical output except for generated_at.
func Save(path string, set *schema.SchemaSet) error {
	doc := toDocument(set, time.Now().UTC().Format(time.RFC3339))

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encoding %q: %w", path, err)
	}
	body = append(body, '\n')

	if err := internaljsonschema.ValidateSnapshot(body); err != nil {
		return fmt.Errorf("snapshot: encoded document failed its own schema: %w", err)
	}

	return writeAtomic(path, body)
}

func writeAtomic(path string, body []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: creating temp file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("snapshot: renaming temp file into place at %q: %w", path, err)
	}
	return nil
}

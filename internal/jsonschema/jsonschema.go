// SPDX-License-Identifier: Apache-2.0

// Package jsonschema validates FluentORM's on-disk JSON documents (snapshots)
// against the schema embedded alongside this package.
package jsonschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaDoc []byte

var compiled *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("snapshot.json", bytes.NewReader(schemaDoc)); err != nil {
		panic(fmt.Sprintf("jsonschema: embedded schema.json failed to load: %v", err))
	}
	sch, err := c.Compile("snapshot.json")
	if err != nil {
		panic(fmt.Sprintf("jsonschema: embedded schema.json failed to compile: %v", err))
	}
	compiled = sch
}

// ValidateSnapshot validates raw JSON bytes against the snapshot document
// schema. On a schema violation it returns a *jsonschema.ValidationError
// (via errors.As-compatible wrapping) describing every violation; bytes that
// are not valid JSON yield the wrapped decode error instead.
func ValidateSnapshot(doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("jsonschema: document is not valid JSON: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("jsonschema: snapshot document failed validation: %w", err)
	}
	return nil
}

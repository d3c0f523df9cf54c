// SPDX-License-Identifier: Apache-2.0

package fluent

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluentorm/fluent/pkg/emit"
)

// writeFiles writes each MigrationFile's up/down pair into dir, creating it
// if needed. A file is never overwritten: migration history is append-only,
// so a name collision means timestampSeed was reused and is a caller error,
// not something to paper over.
func writeFiles(dir string, files []emit.MigrationFile, generatedAt string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("emit: create migrations directory: %w", err)
	}

	for _, f := range files {
		upPath := filepath.Join(dir, f.UpFilename())
		downPath := filepath.Join(dir, f.DownFilename())

		if err := writeOnce(upPath, f.UpContents(generatedAt)); err != nil {
			return err
		}
		if err := writeOnce(downPath, f.DownContents(generatedAt)); err != nil {
			return err
		}
	}
	return nil
}

func writeOnce(path, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("emit: migration file %q already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("emit: stat %q: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("emit: write %q: %w", path, err)
	}
	return nil
}

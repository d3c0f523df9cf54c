// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// upFilePattern matches a migration's "up" filename: a numeric timestamp
// prefix, an underscore, a lowercase slug, and a .sql extension. _down.sql
// files are filtered out before this pattern is applied.
var upFilePattern = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.sql$`)

// discoveredFile is one migration found on disk.
type discoveredFile struct {
	Timestamp int64
	Name      string // filename without the .sql extension
	Path      string
}

// discover scans dir for up-migration files, sorted by timestamp then name.
// A missing directory yields no files and no error: a project that has not
// generated its first migration yet is not malformed.
func discover(dir string) ([]discoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []discoveredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, "_down.sql") {
			continue
		}
		m := upFilePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		files = append(files, discoveredFile{
			Timestamp: ts,
			Name:      strings.TrimSuffix(name, ".sql"),
			Path:      filepath.Join(dir, name),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Timestamp != files[j].Timestamp {
			return files[i].Timestamp < files[j].Timestamp
		}
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// NextTimestampSeed scans dir for existing up-migration files and returns a
// seed one greater than the highest timestamp found, so a migration
// generated from it always sorts after every migration already on disk. ok
// is false when dir has no migrations yet (including when it doesn't exist),
// in which case the caller should seed from the current time instead.
func NextTimestampSeed(dir string) (seed int64, ok bool, err error) {
	files, err := discover(dir)
	if err != nil {
		return 0, false, err
	}
	if len(files) == 0 {
		return 0, false, nil
	}
	// discover returns files sorted ascending by timestamp; the last one
	// carries the maximum.
	return files[len(files)-1].Timestamp + 1, true, nil
}

// downPath returns the path of the _down.sql file paired with an up
// migration named name, e.g. "1700000000_create_users" ->
// ".../1700000000_create_users_down.sql".
func downPath(dir, name string) string {
	return filepath.Join(dir, name+"_down.sql")
}

// stripHeader removes the leading run of "--"-prefixed comment lines emitted
// by pkg/emit, returning only the SQL body. The checksum stored in the
// tracking table covers the body alone, so reconciliation must strip the
// header the same way before recomputing it.
func stripHeader(content string) string {
	lines := strings.Split(content, "\n")
	i := 0
	for i < len(lines) && strings.HasPrefix(strings.TrimLeft(lines[i], " \t"), "--") {
		i++
	}
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return strings.Join(lines[i:], "\n")
}

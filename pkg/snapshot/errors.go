// SPDX-License-Identifier: Apache-2.0

package snapshot

import "fmt"

// SnapshotError is the category every error this package returns belongs to.
type SnapshotError interface {
	error
	isSnapshotError()
}

// Malformed is returned when a snapshot file exists but its contents do not
// satisfy the document schema (missing required keys, wrong types).
type Malformed struct {
	Path   string
	Reason string
}

func (e Malformed) Error() string {
	return fmt.Sprintf("snapshot %q is malformed: %s", e.Path, e.Reason)
}
func (e Malformed) isSnapshotError() {}

// VersionUnsupported is returned when a snapshot's version field does not
// match the version this build of FluentORM understands.
type VersionUnsupported struct {
	Path    string
	Got     int
	Want    int
}

func (e VersionUnsupported) Error() string {
	return fmt.Sprintf("snapshot %q has version %d, this build only understands version %d", e.Path, e.Got, e.Want)
}
func (e VersionUnsupported) isSnapshotError() {}

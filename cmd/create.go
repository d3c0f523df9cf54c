// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/fluentorm/fluent/cmd/flags"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9_]+`)

// createMeta is a small YAML sidecar recording a hand-authored migration's
// name, creation time and file pair, since — unlike a generated migration — it carries
// no schema fragment to point back to. JSON tags, not yaml tags: sigs.k8s.io/yaml
// marshals through encoding/json, so the same struct could be decoded as JSON
// by a caller that prefers that over YAML.
type createMeta struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpFile    string `json:"up_file"`
	DownFile  string `json:"down_file"`
}

func createCmd() *cobra.Command {
	var name string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Hand-author a raw SQL migration pair, bypassing the schema compiler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name, _ = pterm.DefaultInteractiveTextInput.
					WithDefaultText("Name this migration").
					Show()
			}
			slug := slugify(name)
			if slug == "" {
				// No usable name was given; fall back to a synthetic
				// identifier, mirroring how an unnamed raw-SQL operation
				// gets one in the absence of a natural name.
				slug = "raw_" + uuid.NewString()[:8]
			}

			upBody, _ := pterm.DefaultInteractiveTextInput.
				WithMultiLine().
				WithDefaultText("Up SQL").
				Show()
			downBody, _ := pterm.DefaultInteractiveTextInput.
				WithMultiLine().
				WithDefaultText("Down SQL").
				Show()

			dir := flags.MigrationsDir()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create migrations directory: %w", err)
			}

			ts := timeNowUnix()
			base := fmt.Sprintf("%d_%s", ts, slug)
			upPath := filepath.Join(dir, base+".sql")
			downPath := filepath.Join(dir, base+"_down.sql")

			if err := os.WriteFile(upPath, []byte(strings.TrimRight(upBody, "\n")+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %q: %w", upPath, err)
			}
			if err := os.WriteFile(downPath, []byte(strings.TrimRight(downBody, "\n")+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %q: %w", downPath, err)
			}

			meta := createMeta{
				Name:      name,
				CreatedAt: nowRFC3339(),
				UpFile:    filepath.Base(upPath),
				DownFile:  filepath.Base(downPath),
			}
			metaBytes, err := yaml.Marshal(meta)
			if err != nil {
				return fmt.Errorf("encode migration metadata: %w", err)
			}
			metaPath := filepath.Join(dir, base+".meta.yaml")
			if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
				return fmt.Errorf("write %q: %w", metaPath, err)
			}

			pterm.Success.Println("wrote " + upPath + " and " + downPath)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Migration name")

	return createCmd
}

// slugify lowercases name and replaces every run of non [a-z0-9_] characters
// with a single underscore, matching the migration filename pattern
// ^\d+_[a-z0-9_]+\.sql$.
func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(s, "_")
}

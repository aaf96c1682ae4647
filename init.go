package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/rspeclint/internal/config"
)

const (
	sentinelStart = "# rspeclint:start"
	sentinelEnd   = "# rspeclint:end"
)

// newInitCmd implements `rspeclint init`, which writes (or updates) the managed
// configuration block in a .rspeclint.yml file.
func newInitCmd(c *cli) *cobra.Command {
	var (
		dryRun bool
		style  = config.AlwaysAllow
	)

	cmd := &cobra.Command{
		Use:   "init [flags] [path-to-.rspeclint.yml]",
		Short: "Write a default configuration block",
		Long: `Write the rspeclint configuration block to a .rspeclint.yml file. The block is
wrapped in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding content. Creates the file if it does not exist.

Keys outside the managed block must not repeat AllCops or
RSpec/ExampleWithoutDescription.

path-to-.rspeclint.yml defaults to ./` + config.FileName + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := generateSection(style)
			if err != nil {
				return err
			}

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(c.stdout, section)
				return nil
			}

			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(c.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(c.stderr, "wrote rspeclint configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().VarP(&style, "style", "s", "enforced style to write: "+styleNames())
	return cmd
}

// generateSection returns the sentinel-wrapped default configuration for style.
func generateSection(style config.Style) (string, error) {
	cfg := config.Default()
	cfg.ExampleWithoutDescription.EnforcedStyle = style

	body, err := config.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("rendering config: %w", err)
	}

	header := `# RSpec/ExampleWithoutDescription
#   always_allow      only flag explicit empty descriptions (it '' do)
#   single_line_only  also flag multi-line examples without a description
#   disallow          flag every example without a description
`
	return sentinelStart + "\n" + header + strings.TrimRight(body, "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}

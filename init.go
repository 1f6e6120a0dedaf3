package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/dlwrap/internal/parse"
)

const (
	sentinelStart = "# dlwrap:symbols:start"
	sentinelEnd   = "# dlwrap:symbols:end"
)

// starter is the part of a new config file outside the managed section.
type starter struct {
	Input     string   `yaml:"input"`
	OutputDir string   `yaml:"outputDir"`
	Includes  []string `yaml:"includes,omitempty"`
}

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		dryRun     bool
		input      string
		parserArgs []string
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write or update a starter " + defaultConfig,
		Long: `Write a starter dlwrap config. The symbols list is wrapped in sentinel
comments so it can be regenerated in place on subsequent runs without
touching the rest of the file. Creates the file if it does not exist.

With --input, every function declared in the header is listed; delete the
ones you do not need. path defaults to ./` + defaultConfig + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var symbols []string
			if input != "" {
				fns, err := parse.New(zap.NewNop().Sugar()).Parse(cmd.Context(), input, parserArgs)
				if err != nil {
					return errors.Wrapf(err, "listing functions of %s", input)
				}
				for _, fn := range fns {
					symbols = append(symbols, fn.Name)
				}
			}

			section, err := generateSection(symbols)
			if err != nil {
				return err
			}

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := defaultConfig
			if len(args) > 0 {
				path = args[0]
			}

			existing, err := os.ReadFile(path)
			if err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "reading %s", path)
			}
			content := string(existing)
			if len(existing) == 0 {
				if content, err = generateStarter(input); err != nil {
					return err
				}
			}
			updated := applySection(content, section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", path)
			}

			_, _ = fmt.Fprintf(stderr, "wrote %d symbols to %s\n", len(symbols), path)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	fs.StringVarP(&input, "input", "i", "", "header whose functions seed the symbols list")
	fs.StringArrayVar(&parserArgs, "parser-arg", nil, "parser argument used with --input (repeatable)")
	return cmd
}

// generateStarter returns the unmanaged top of a new config file.
func generateStarter(input string) (string, error) {
	s := starter{Input: input, OutputDir: "."}
	if input != "" {
		s.Includes = []string{"<" + filepath.Base(input) + ">"}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "encoding starter config")
	}
	return "# dlwrap configuration; command-line flags override these values.\n" + string(data), nil
}

// generateSection returns the sentinel-wrapped symbols list.
func generateSection(symbols []string) (string, error) {
	if symbols == nil {
		symbols = []string{}
	}
	data, err := yaml.Marshal(struct {
		Symbols []string `yaml:"symbols"`
	}{symbols})
	if err != nil {
		return "", errors.Wrap(err, "encoding symbols")
	}
	return sentinelStart + "\n" + strings.TrimSuffix(string(data), "\n") + "\n" + sentinelEnd, nil
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
	return content + "\n" + section + "\n"
}

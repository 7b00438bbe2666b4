/*
Package cli implements the dealforge command line.

COMMANDS:
  analyze FILE...   Analyze deal envelopes (JSON or YAML; "-" reads stdin)
  presets [TYPE]    Print default inputs
  score             Score one lien aggregate given as flags
  distress          Run the distress batch against a SQLite database

  Results are printed as indented JSON on stdout. Structured logs go to
  stderr as JSON; --debug lowers the level to debug.

SEE ALSO:
  - factory: Envelope parsing and validation
  - store/sqlite: Park and lien storage used by distress
*/
package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "dealforge",
		Short:        "Real estate deal analysis and park distress scoring",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogger(cmd.ErrOrStderr(), debug)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.AddCommand(analyzeCmd(), presetsCmd(), scoreCmd(), distressCmd())
	return cmd
}

var logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func setupLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

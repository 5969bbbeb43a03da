// Package commands implements the swf subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/speakeasy-api/serverlessworkflow/references"
	"github.com/speakeasy-api/serverlessworkflow/workflow"
	"github.com/spf13/cobra"
)

// StdinIndicator is the conventional Unix indicator to read from stdin.
const StdinIndicator = "-"

// Apply adds every swf command to the provided root command
func Apply(rootCmd *cobra.Command) {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(queryCmd)
}

// IsStdin returns true if the given path indicates stdin should be used.
func IsStdin(path string) bool {
	return path == StdinIndicator
}

// resolveFlags are shared by every command that loads external workflow definitions.
type resolveFlags struct {
	mode    string
	baseURI string
	baseDir string
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "file", "How relative definition URIs are resolved: file, absolute or reject")
	cmd.Flags().StringVar(&f.baseURI, "base-uri", "", "Base URI relative definition URIs are resolved against in absolute mode")
	cmd.Flags().StringVar(&f.baseDir, "base-dir", "", "Directory relative definition URIs are joined onto in file mode (defaults to the input file's directory)")
}

// options builds the resolve options for the document at inputFile.
func (f *resolveFlags) options(inputFile string, logger *slog.Logger) (workflow.ResolveOptions, error) {
	mode, err := parseMode(f.mode)
	if err != nil {
		return workflow.ResolveOptions{}, err
	}

	baseDir := f.baseDir
	if baseDir == "" && !IsStdin(inputFile) {
		baseDir = filepath.Dir(filepath.Clean(inputFile))
	}

	return workflow.ResolveOptions{
		RelativeURIResolutionMode: mode,
		BaseURI:                   f.baseURI,
		BaseDirectory:             baseDir,
		Logger:                    logger,
	}, nil
}

func parseMode(mode string) (references.RelativeURIResolutionMode, error) {
	switch strings.ToLower(mode) {
	case "", "file":
		return references.ConvertToRelativeFilePath, nil
	case "absolute":
		return references.ConvertToAbsolute, nil
	case "reject":
		return references.Reject, nil
	default:
		return 0, fmt.Errorf("unknown resolution mode %q: expected file, absolute or reject", mode)
	}
}

// newLogger returns a text logger on stderr, at debug level when --verbose is set.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// readInput reads the whole of file, or stdin when file is "-".
func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if IsStdin(file) {
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// writeOutput writes data to file, or to the command's stdout when file is empty.
func writeOutput(cmd *cobra.Command, file string, data []byte) error {
	if file == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(filepath.Clean(file), data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", file)
	return nil
}

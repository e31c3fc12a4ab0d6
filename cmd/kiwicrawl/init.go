package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/kiwicrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/kiwicrawl.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented kiwicrawl configuration file",
		Long: `Init writes a starter .kiwicrawl file with the built-in defaults
(archive URL, crawl budgets, timeout, output directory) and commented
profile examples. Edit it, then run 'kiwicrawl crawl' or
'kiwicrawl crawl --profile <name>'.

Examples:
  kiwicrawl init
  kiwicrawl init -o ~/.config/kiwicrawl/config.yaml
  kiwicrawl init -f   # replace an existing file`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "path of the file to create")
	cmd.Flags().BoolP("force", "f", false, "replace the file if it already exists")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigTemplate(path, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Set base_url and the crawl budgets under 'defaults', or add seeds to a profile.")
	return nil
}

// writeConfigTemplate creates path (and its parent directories) holding the
// embedded template. Without force an existing file is left untouched.
func writeConfigTemplate(path string, force bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(filepath.Clean(path), flags, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}

	if _, err := f.Write(configTemplate); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	return f.Close()
}

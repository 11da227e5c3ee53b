package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/yagnidrift/config"
)

func configCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage yagnidrift configuration",
	}
	cmd.AddCommand(configInitCmd(opts))
	return cmd
}

func configInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Write the default settings to --config, or to yagnidrift.yaml in --dir
(the current directory when unset). An existing file is kept unless --force
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = filepath.Join(firstNonEmpty(opts.dir, "."), config.ProjectConfigFile)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return &exitError{code: exitFailure, err: fmt.Errorf("%s already exists (use --force to overwrite)", path)}
			}
			if err := config.DefaultConfig().SaveToFile(path); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

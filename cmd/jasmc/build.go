// Package main implements the jasmc CLI.
package main

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [unit.toml|dir ...]",
	Short: "Compile units into .jasm assembly",
	Long: `Compile resolved-program units into Jasmin-style assembly.
Without arguments the units listed in jasmc.toml ([build].units) are compiled;
a unit is published as <out_dir>/<program>.jasm only when it has no errors.`,
	RunE: buildExecution,
}

func buildExecution(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	req, err := prepareCompile(cmd, args, "jasmc build", g)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out-dir") {
		if req.opts.OutDir, err = cmd.Flags().GetString("out-dir"); err != nil {
			return err
		}
	}
	_, err = runCompile(cmd, req, g)
	return err
}

func init() {
	addCompileFlags(buildCmd)
	buildCmd.Flags().StringP("out-dir", "o", "", "directory receiving .jasm files (default: next to each unit)")
}

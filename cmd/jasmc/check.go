package main

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [unit.toml|dir ...]",
	Short: "Run every compiler pass without writing output",
	RunE:  checkExecution,
}

func checkExecution(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	req, err := prepareCompile(cmd, args, "jasmc check", g)
	if err != nil {
		return err
	}
	req.opts.CheckOnly = true
	if req.opts.DumpSymbols, err = cmd.Flags().GetBool("dump-symbols"); err != nil {
		return err
	}
	_, err = runCompile(cmd, req, g)
	return err
}

func init() {
	addCompileFlags(checkCmd)
	checkCmd.Flags().Bool("dump-symbols", false, "print the scope stack at the end of every method")
}

package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// contextCmd: projctx context [path]
var contextCmd = &cobra.Command{
	Use:   "context [project_path]",
	Short: "Show the stored context of a project, rescanning it when stale",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		projectPath, err := projectPathArg(args, rootDependencies.Cwd)
		if err != nil {
			return err
		}
		includeFiles, _ := cmd.Flags().GetBool("files")

		formatted, err := rootDependencies.Manager.GetContext(ctx, projectPath, includeFiles)
		if err != nil {
			return err
		}
		return printResult(rootDependencies, formatted)
	},
}

func init() {
	contextCmd.Flags().Bool("files", true, "Include the file structure summary")
	rootCmd.AddCommand(contextCmd)
}

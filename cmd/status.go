package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/projctx/context_manager"
	"github.com/spf13/cobra"
)

// statusCmd: projctx status [path]
var statusCmd = &cobra.Command{
	Use:   "status [project_path]",
	Short: "Show recent activity, todos and suggested next steps of a project",
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
		daysBack, _ := cmd.Flags().GetInt("days")

		status, err := rootDependencies.Manager.GetDevelopmentStatus(ctx, projectPath, daysBack)
		if err != nil {
			return err
		}
		return printResult(rootDependencies, status)
	},
}

func init() {
	statusCmd.Flags().IntP("days", "d", context_manager.DefaultDaysBack, "Number of days to look back for recent changes")
	rootCmd.AddCommand(statusCmd)
}

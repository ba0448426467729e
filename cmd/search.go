package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/spf13/cobra"
)

// searchCmd: projctx search <query>
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a project's files, development log and semantic index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		path, _ := cmd.Flags().GetString("path")
		projectPath, err := projectPathArg([]string{path}, rootDependencies.Cwd)
		if err != nil {
			return err
		}
		fileTypes, _ := cmd.Flags().GetStringSlice("type")

		result, err := rootDependencies.Manager.Search(ctx, projectPath, args[0], fileTypes)
		if err != nil {
			return err
		}
		if len(result.Matches) == 0 {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("No matches for %q", args[0])))
		}
		return printResult(rootDependencies, result)
	},
}

func init() {
	searchCmd.Flags().StringP("path", "p", "", "Project directory (defaults to the working directory)")
	searchCmd.Flags().StringSliceP("type", "t", nil, "Restrict file matches to these extensions (e.g. -t go,md)")
	rootCmd.AddCommand(searchCmd)
}

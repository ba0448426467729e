package cmd

import (
	"context"
	"fmt"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/spf13/cobra"
)

// updateCmd: projctx update <type> <content>
var updateCmd = &cobra.Command{
	Use:   "update <note|decision|status|todo|completion> <content>",
	Short: "Add an entry to a project's development log",
	Long: `The 'update' command appends a note, decision, status, todo or completion to the
development log of a project. A status update also becomes the project's current
focus; a completion with --todo marks that todo as done.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("path")
		projectPath, err := projectPathArg([]string{path}, rootDependencies.Cwd)
		if err != nil {
			return err
		}
		tags, _ := cmd.Flags().GetStringSlice("tags")
		todoID, _ := cmd.Flags().GetString("todo")

		entry, err := rootDependencies.Manager.UpdateContext(context.Background(), projectPath, models.Update{
			Type:    models.UpdateType(args[0]),
			Content: args[1],
			Tags:    tags,
			TodoID:  todoID,
		})
		if err != nil {
			return err
		}

		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Added %s %s", entry.Type, entry.ID)))
		return printResult(rootDependencies, entry)
	},
}

func init() {
	updateCmd.Flags().StringP("path", "p", "", "Project directory (defaults to the working directory)")
	updateCmd.Flags().StringSlice("tags", nil, "Tags to associate with the entry")
	updateCmd.Flags().String("todo", "", "Id of the todo a completion refers to")
	rootCmd.AddCommand(updateCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/spf13/cobra"
)

// projectsCmd: projctx projects
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List every project with stored context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		projects, err := rootDependencies.Manager.ListProjects(context.Background())
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println(lipgloss.Yellow.Render("No projects yet. Run 'projctx scan' inside a project."))
			return nil
		}
		return printResult(rootDependencies, projects)
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

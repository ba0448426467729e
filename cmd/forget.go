package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/meysamhadeli/projctx/utils"
	"github.com/spf13/cobra"
)

// forgetCmd: projctx forget [path]
var forgetCmd = &cobra.Command{
	Use:   "forget [project_path]",
	Short: "Delete the stored context and semantic index of a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		projectPath, err := projectPathArg(args, rootDependencies.Cwd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if force, _ := cmd.Flags().GetBool("force"); !force {
			confirmed, err := utils.ConfirmPrompt(ctx, bufio.NewReader(os.Stdin), os.Stdout, fmt.Sprintf("Forget everything stored about %s?", projectPath))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println(lipgloss.Yellow.Render("Nothing was deleted."))
				return nil
			}
		}

		if err := rootDependencies.Manager.ForgetProject(ctx, projectPath); err != nil {
			return err
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Forgot %s", projectPath)))
		return nil
	},
}

func init() {
	forgetCmd.Flags().BoolP("force", "f", false, "Delete without confirmation")
	rootCmd.AddCommand(forgetCmd)
}

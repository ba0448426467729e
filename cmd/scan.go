package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// scanCmd: projctx scan [path]
var scanCmd = &cobra.Command{
	Use:   "scan [project_path]",
	Short: "Scan a project and refresh its stored context and semantic index",
	Long: `The 'scan' command walks the project tree, detects the manifest, languages and
frameworks, stores the snapshot in the project's context document and indexes the
project's content for semantic search. The working directory is scanned when no
path is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		return handleScanCommand(rootDependencies, args, force)
	},
}

func init() {
	scanCmd.Flags().BoolP("force", "f", false, "Bypass the analysis cache and rebuild the semantic index")
	rootCmd.AddCommand(scanCmd)
}

func handleScanCommand(rootDependencies *RootDependencies, args []string, force bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	projectPath, err := projectPathArg(args, rootDependencies.Cwd)
	if err != nil {
		return err
	}

	spinner, _ := newSpinner().Start(fmt.Sprintf("Scanning %s...", projectPath))
	summary, err := rootDependencies.Manager.ScanProject(ctx, projectPath, force)
	stopSpinner(spinner)
	if err != nil {
		return err
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Scanned %d files in %d directories (%d ms)", summary.FileCount, summary.DirectoryCount, summary.DurationMs)))
	if stats, err := rootDependencies.Manager.IndexStats(projectPath); err == nil {
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Semantic index: %d chunks in %s (%s)", stats.Documents, stats.Collection, stats.Provider)))
	}
	return printResult(rootDependencies, summary)
}

func newSpinner() *pterm.SpinnerPrinter {
	return pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).WithRemoveWhenDone(true)
}

func stopSpinner(spinner *pterm.SpinnerPrinter) {
	if spinner != nil {
		_ = spinner.Stop()
	}
	fmt.Print("\r")
}

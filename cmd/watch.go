package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/meysamhadeli/projctx/file_watcher"
	"github.com/spf13/cobra"
)

// watchCmd: projctx watch [paths...]
var watchCmd = &cobra.Command{
	Use:   "watch [project_path...]",
	Short: "Watch projects and keep their context current until interrupted",
	Long: `The 'watch' command records file changes in each project's development log and
rescans a project after significant changes such as edits to manifests or new
source files. With --all every non-hidden child directory of the given parent
is watched as its own project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		parent, _ := cmd.Flags().GetString("all")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		return handleWatchCommand(rootDependencies, args, parent, exclude)
	},
}

func init() {
	watchCmd.Flags().String("all", "", "Watch every child directory of this parent directory")
	watchCmd.Flags().StringSlice("exclude", nil, "Child directory names to skip with --all")
	rootCmd.AddCommand(watchCmd)
}

func handleWatchCommand(rootDependencies *RootDependencies, args []string, parent string, exclude []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher := rootDependencies.Watcher
	defer func() {
		if err := watcher.StopAll(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error stopping watchers: %v", err)))
		}
	}()

	var started []file_watcher.SessionStatus
	if parent != "" {
		sessions, err := watcher.StartWatchingMultiple(parent, exclude)
		if err != nil {
			return err
		}
		started = append(started, sessions...)
	} else {
		if len(args) == 0 {
			args = []string{rootDependencies.Cwd}
		}
		for _, arg := range args {
			projectPath, err := projectPathArg([]string{arg}, rootDependencies.Cwd)
			if err != nil {
				return err
			}
			status, err := watcher.StartWatching(projectPath)
			if err != nil {
				return err
			}
			started = append(started, status)
		}
	}

	for _, status := range started {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("👀 Watching %s (%d directories)", status.ProjectPath, status.WatchedDirs)))
	}
	fmt.Println(lipgloss.Gray.Render("Press Ctrl+C to stop."))

	<-ctx.Done()
	fmt.Println(lipgloss.Yellow.Render("\n🔄 Stopping watchers..."))

	stats := watcher.Statistics()
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Recorded %d file changes across %d projects", stats.TotalFileChanges, stats.TotalWatchedProjects)))
	return nil
}

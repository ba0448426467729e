package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/meysamhadeli/projctx/utils"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the file analysis cache",
	Long: `The 'reset-cache' command removes the cached per-file analysis (MIME type, language,
preview, front matter and imports) that speeds up repeated scans. Stored project
context and the semantic index are not touched. Use --prune to only drop entries
older than a given age.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		prune, _ := cmd.Flags().GetDuration("prune")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleResetCacheCommand(rootDependencies, force, stats, prune)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")
	resetCacheCmd.Flags().Duration("prune", 0, "Only remove entries older than this age (e.g. 168h)")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(rootDependencies *RootDependencies, force bool, showStats bool, prune time.Duration) error {
	cache := rootDependencies.Cache
	if cache == nil {
		fmt.Println(lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return nil
	}

	if showStats {
		cacheStats, err := cache.Stats()
		if err != nil {
			return fmt.Errorf("could not read cache statistics: %w", err)
		}
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		fmt.Printf("  Cache Directory: %s\n", cacheStats.Dir)
		fmt.Printf("  Cached Files: %d\n", cacheStats.Entries)
		fmt.Printf("  Total Size: %.2f MB\n", float64(cacheStats.TotalBytes)/(1024*1024))
		return nil
	}

	if prune > 0 {
		removed, err := cache.CleanExpiredCache(prune)
		if err != nil {
			return fmt.Errorf("error pruning cache: %w", err)
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d cache entries older than %s", removed, prune)))
		return nil
	}

	if !force {
		confirmed, err := utils.ConfirmPrompt(context.Background(), bufio.NewReader(os.Stdin), os.Stdout, "Are you sure you want to reset the entire analysis cache?")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return nil
		}
	}

	spinner, _ := newSpinner().Start("Resetting analysis cache...")
	err := cache.ClearCache()
	utils.ClearGitignoreCache()
	stopSpinner(spinner)
	if err != nil {
		return fmt.Errorf("error resetting cache: %w", err)
	}

	fmt.Println(lipgloss.Green.Render("✓ Analysis cache has been successfully reset!"))
	return nil
}

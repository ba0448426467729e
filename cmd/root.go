package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/projctx/config"
	"github.com/meysamhadeli/projctx/constants/lipgloss"
	"github.com/meysamhadeli/projctx/context_manager"
	"github.com/meysamhadeli/projctx/context_storage"
	storagecontracts "github.com/meysamhadeli/projctx/context_storage/contracts"
	"github.com/meysamhadeli/projctx/file_watcher"
	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/project_scanner"
	scancontracts "github.com/meysamhadeli/projctx/project_scanner/contracts"
	"github.com/meysamhadeli/projctx/semantic_index"
	indexcontracts "github.com/meysamhadeli/projctx/semantic_index/contracts"
	"github.com/meysamhadeli/projctx/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootDependencies holds the components shared by every subcommand.
type RootDependencies struct {
	Config  *config.Config
	Cwd     string
	Storage storagecontracts.IContextStorage
	Scanner scancontracts.IProjectScanner
	Cache   *project_scanner.CacheManager
	Index   indexcontracts.ISemanticIndex
	Manager *context_manager.ContextManager
	Watcher *file_watcher.FileWatcher
}

var rootCmd = &cobra.Command{
	Use:   "projctx",
	Short: "Persistent, searchable project context for coding assistants",
	Long: `projctx scans software projects, keeps a per-project knowledge document with
the file structure, detected stack and a development log, watches projects for
changes and serves all of it to assistants as MCP tools.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("version: %s", config.DefaultConfig.Version)))
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(err.Error()))
		os.Exit(1)
	}
}

// handleRootCommand loads the configuration and wires the components.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get the working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	if err := logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, OutputPath: cfg.Log.Output}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	deps := &RootDependencies{
		Config:  cfg,
		Cwd:     cwd,
		Storage: context_storage.NewContextStorage(cfg.StorageDir),
	}

	scannerOptions := []project_scanner.Option{project_scanner.WithChunking(cfg.Chunk.MaxSize, cfg.Chunk.Overlap)}
	if cfg.EnableCache {
		cache, err := project_scanner.NewCacheManager(cfg.CacheDir)
		if err != nil {
			logging.Warn("file analysis cache disabled", logging.Path(cfg.CacheDir), logging.Err(err))
		} else {
			deps.Cache = cache
			scannerOptions = append(scannerOptions, project_scanner.WithCache(cache))
		}
	}
	deps.Scanner = project_scanner.NewProjectScanner(scannerOptions...)

	deps.Index, err = semantic_index.NewSemanticIndex(semantic_index.Config{
		Provider:   cfg.SemanticIndex.Provider,
		PersistDir: cfg.SemanticIndex.PersistDir,
		BaseURL:    cfg.SemanticIndex.BaseURL,
		Model:      cfg.SemanticIndex.Model,
	})
	if err != nil {
		return nil, err
	}

	deps.Manager = context_manager.NewContextManager(deps.Storage, deps.Scanner, deps.Index,
		context_manager.WithStaleAfter(cfg.StaleAfter),
		context_manager.WithSemanticResults(cfg.SemanticIndex.Results),
	)
	deps.Watcher = file_watcher.NewFileWatcher(deps.Storage, deps.Manager, file_watcher.WithDebounce(cfg.Debounce))

	logging.Debug("dependencies ready",
		logging.Path(cfg.StorageDir),
		zap.String("semantic_provider", cfg.SemanticIndex.Provider),
		zap.Bool("cache", deps.Cache != nil),
	)
	return deps, nil
}

// projectPathArg resolves the optional positional project path, defaulting to the working directory.
func projectPathArg(args []string, cwd string) (string, error) {
	projectPath := cwd
	if len(args) > 0 && args[0] != "" {
		projectPath = args[0]
	}
	return filepath.Abs(projectPath)
}

// printResult renders v with the configured output format and theme.
func printResult(deps *RootDependencies, v interface{}) error {
	theme := deps.Config.Theme
	if !isTerminal(os.Stdout) {
		theme = ""
	}
	return utils.RenderOutput(os.Stdout, v, deps.Config.OutputFormat, theme)
}

func isTerminal(file *os.File) bool {
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

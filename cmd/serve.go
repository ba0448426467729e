package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meysamhadeli/projctx/config"
	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/mcp_server"
	"github.com/meysamhadeli/projctx/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serveCmd: projctx serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve project context to assistants as MCP tools over stdio",
	Long: `The 'serve' command speaks the Model Context Protocol on stdin/stdout. Logs go to
stderr. Projects passed with --watch are watched for the lifetime of the server,
and Prometheus metrics are exposed when --metrics_addr is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		watch, _ := cmd.Flags().GetStringSlice("watch")
		return handleServeCommand(rootDependencies, watch)
	},
}

func init() {
	serveCmd.Flags().StringSlice("watch", nil, "Project directories to watch while serving")
	rootCmd.AddCommand(serveCmd)
}

func handleServeCommand(rootDependencies *RootDependencies, watch []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher := rootDependencies.Watcher
	defer func() {
		if err := watcher.StopAll(); err != nil {
			logging.Error("failed to stop watchers", logging.Err(err))
		}
		_ = logging.Sync()
	}()

	for _, path := range watch {
		projectPath, err := projectPathArg([]string{path}, rootDependencies.Cwd)
		if err != nil {
			return err
		}
		if _, err := watcher.StartWatching(projectPath); err != nil {
			logging.Warn("failed to watch project", logging.Project(projectPath), logging.Err(err))
		}
	}

	if err := rootDependencies.Index.Ping(ctx); err != nil {
		logging.Warn("semantic index unavailable, search falls back to keyword matches",
			zap.String("provider", rootDependencies.Config.SemanticIndex.Provider), logging.Err(err))
	}

	server := mcp_server.NewServer(rootDependencies.Manager, watcher, config.DefaultConfig.Version)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer cancel()
		return server.Serve(ctx, os.Stdin, os.Stdout)
	})

	if addr := rootDependencies.Config.MetricsAddr; addr != "" {
		metricsServer := &http.Server{Addr: addr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		group.Go(func() error {
			logging.Info("serving metrics", zap.String("addr", addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	return group.Wait()
}

package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/internal/server"
	"github.com/matzehuels/orgtree/pkg/analysis"
	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/chart"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve [chart.json]",
		Short: "Serve the org chart API over HTTP",
		Long: `Serve the org chart editing API over HTTP.

The chart file is loaded once at startup into memory; all mutations go
through the API and are not written back to the file. Use GET /export to
save the current state.

With --watch, the server reloads the chart whenever the file changes on
disk, discarding any unsaved API mutations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), args[0], addr, watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the chart when the file changes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input, addr string, watch bool) error {
	f, err := chart.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", input, err)
	}
	c.Logger.Info("loaded chart", "path", input, "nodes", f.NodeCount(), "edges", f.EdgeCount())

	analyzer, closeCache, err := c.newAnalyzer(ctx)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}

	srv := server.New(f, server.Config{
		Layout:   c.Config.LayoutSettings(),
		Analyzer: analyzer,
		Logger:   c.Logger,
	})

	if watch {
		stop, err := c.watchChart(ctx, input, srv)
		if err != nil {
			return fmt.Errorf("watch %s: %w", input, err)
		}
		defer stop()
	}

	return srv.Run(ctx, addr)
}

// newAnalyzer builds the analysis client from config, or nil when no
// service is configured. The returned func closes the backing cache.
func (c *CLI) newAnalyzer(ctx context.Context) (*analysis.Client, func(), error) {
	if c.Config.Analysis.BaseURL == "" {
		return nil, nil, nil
	}

	backend, err := c.serverCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	keyer := cache.NewScopedKeyer(nil, appName+":")

	client, err := analysis.NewClient(analysis.Config{
		BaseURL: c.Config.Analysis.BaseURL,
		APIKey:  c.Config.Analysis.APIKey,
		Model:   c.Config.Analysis.Model,
	}, backend, keyer)
	if err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("analysis client: %w", err)
	}
	return client, func() { _ = backend.Close() }, nil
}

// serverCache builds the cache backend named in the config. Server
// deployments typically point this at Redis so replicas share entries.
func (c *CLI) serverCache(ctx context.Context) (cache.Cache, error) {
	switch c.Config.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
		})
	case "none":
		return cache.NewNullCache(), nil
	default:
		return c.newCache(false)
	}
}

// watchChart reloads the chart into the server whenever the file is
// rewritten. Editors often replace files via rename, so the parent
// directory is watched and events are filtered by name.
func (c *CLI) watchChart(ctx context.Context, path string, srv *server.Server) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				f, err := chart.ReadFile(abs)
				if err != nil {
					c.Logger.Warn("chart reload skipped", "path", path, "err", err)
					continue
				}
				srv.Replace(f)
				c.Logger.Info("chart reloaded", "path", path, "nodes", f.NodeCount())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.Logger.Warn("watch error", "err", err)
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}

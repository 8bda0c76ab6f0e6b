package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pngsquare/internal/server"
	"github.com/matzehuels/pngsquare/pkg/cache"
	"github.com/matzehuels/pngsquare/pkg/storage"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr   string // listen address
	redis  string // redis address for the cache; empty means in-memory
	mongo  string // mongodb URI for atlas storage
	store  string // directory for file-backed atlas storage
	memory bool   // keep atlases in memory only
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the packing HTTP API",
		Long: `Serve runs an HTTP API that packs sprite sizes and stores the resulting
atlases.

Atlases are stored in MongoDB with --mongo, in memory with --memory, and
otherwise as JSON files under $XDG_DATA_HOME/pngsquare/atlases. Layouts
and artifacts are cached in Redis with --redis, otherwise in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyServeConfig(cmd, &opts)
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "redis address for the cache (host:port)")
	cmd.Flags().StringVar(&opts.mongo, "mongo", "", "mongodb URI for atlas storage")
	cmd.Flags().StringVar(&opts.store, "store", "", "directory for atlas storage")
	cmd.Flags().BoolVar(&opts.memory, "memory", false, "keep atlases in memory only")

	return cmd
}

// applyServeConfig fills flags the user did not set from the config file.
func (c *CLI) applyServeConfig(cmd *cobra.Command, opts *serveOpts) {
	cfg := c.config().Serve
	set := func(flag string, dst *string, v string) {
		if v != "" && !cmd.Flags().Changed(flag) {
			*dst = v
		}
	}
	set("addr", &opts.addr, cfg.Addr)
	set("redis", &opts.redis, cfg.Redis)
	set("mongo", &opts.mongo, cfg.Mongo)
	set("store", &opts.store, cfg.Store)
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	ch, err := newServeCache(ctx, opts)
	if err != nil {
		return err
	}
	store, err := c.newStore(ctx, opts)
	if err != nil {
		ch.Close()
		return err
	}

	srv := server.New(server.Config{
		Addr:   opts.addr,
		Cache:  ch,
		Store:  store,
		Logger: c.Logger,
	})
	defer srv.Close()

	printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(opts.addr)))
	return srv.ListenAndServe(ctx)
}

func newServeCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.redis == "" {
		return cache.NewMemoryCache(), nil
	}
	spinner := newSpinnerWithContext(ctx, "Connecting to redis...")
	spinner.Start()
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redis})
	if err != nil {
		spinner.StopWithError("Redis unavailable")
		return nil, err
	}
	spinner.StopWithSuccess("Connected to redis at " + opts.redis)
	return rc, nil
}

func (c *CLI) newStore(ctx context.Context, opts serveOpts) (storage.Store, error) {
	switch {
	case opts.mongo != "":
		spinner := newSpinnerWithContext(ctx, "Connecting to mongodb...")
		spinner.Start()
		store, err := storage.NewMongoStore(ctx, storage.MongoConfig{URI: opts.mongo})
		if err != nil {
			spinner.StopWithError("MongoDB unavailable")
			return nil, err
		}
		spinner.StopWithSuccess("Connected to mongodb")
		return store, nil
	case opts.memory:
		return storage.NewMemoryStore(), nil
	}

	dir := opts.store
	if dir == "" {
		base, err := dataDir()
		if err != nil {
			return nil, fmt.Errorf("get data dir: %w", err)
		}
		dir = filepath.Join(base, "atlases")
	}
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("using file storage", "dir", store.Path())
	return store, nil
}

// displayAddr makes a listen address clickable: ":8080" becomes
// "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

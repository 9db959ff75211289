package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/deskboard/internal/paths"
	"github.com/mesh-intelligence/deskboard/internal/sheet"
	"github.com/mesh-intelligence/deskboard/internal/store"
	"github.com/mesh-intelligence/deskboard/internal/view"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// app carries the state shared by every command of one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer

	flagConfigDir string
	flagDataDir   string
	flagBackend   string
	flagJSON      bool
	flagVerbose   bool

	configDir string
	cfg       types.Config
	logger    *slog.Logger
	store     *store.Store
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, logger: slog.New(slog.DiscardHandler)}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "deskboard",
		Short:         "deskboard keeps a dealership operations board",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return userError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flagDataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	pf.StringVar(&a.flagBackend, "backend", "", "sheet backend: csv, jsonl, sqlite, redis or memory")
	pf.BoolVar(&a.flagJSON, "json", false, "output as JSON")
	pf.BoolVarP(&a.flagVerbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newKindsCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newLinkCmd(a, true),
		newLinkCmd(a, false),
		newSummaryCmd(a),
		newImportCmd(a),
	)
	return root
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup() error {
	level := slog.LevelWarn
	if a.flagVerbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	configDir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(v, a.flagBackend, a.flagDataDir)
	if err != nil {
		return err
	}
	a.configDir = configDir
	a.cfg = cfg
	a.logger.Debug("config loaded", "config_dir", configDir, "backend", cfg.Backend, "data_dir", cfg.DataDir, "sync", cfg.SyncStrategy())
	return nil
}

// openStore opens the configured sheet and loads the store. The store is
// closed when the command finishes.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	sh, err := sheet.Open(a.cfg)
	if err != nil {
		return nil, &types.PersistenceError{Op: "open", Err: err}
	}
	s, err := store.Open(ctx, sh,
		store.WithLogger(a.logger),
		store.WithSyncStrategy(a.cfg.SyncStrategy()),
	)
	if err != nil {
		_ = sh.Close()
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *app) close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close(ctx)
	a.store = nil
	return err
}

// controller opens the store and returns a view controller for k.
func (a *app) controller(ctx context.Context, k types.Kind) (*view.Controller, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	tbl, err := s.Table(k)
	if err != nil {
		return nil, err
	}
	return view.New(tbl, s.Links(), view.WithLogger(a.logger))
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exactArgs is cobra.ExactArgs reporting a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s: accepts %d arg(s), received %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

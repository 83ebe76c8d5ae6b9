package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	cuekiterrors "github.com/cuekit-dev/cuekit/internal/errors"
	"github.com/cuekit-dev/cuekit/pkg/bridge"
	"github.com/cuekit-dev/cuekit/pkg/cue"
	"github.com/cuekit-dev/cuekit/pkg/props"
	"github.com/cuekit-dev/cuekit/pkg/store"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var (
		addr        string
		snapshotDir string
		showName    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the UI-binding bridge with the demo cue schema",
		Long: `Starts the bridge with a demo cue and media cue registered, serving:

  GET   /objects          registered object names
  GET   /objects/{name}   full export (?sparse=1 for sparse)
  PATCH /objects/{name}   merge a JSON property mapping
  GET   /ws               live change frames over WebSocket
  GET   /metrics          Prometheus metrics

With --snapshots, object state is loaded from the snapshot directory at
startup and written back on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := net.SplitHostPort(addr); err != nil {
				return cuekiterrors.New("E901").Wrap(err)
			}
			return serve(cmd.Context(), addr, snapshotDir, showName)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&snapshotDir, "snapshots", "", "snapshot directory (empty disables persistence)")
	cmd.Flags().StringVar(&showName, "show", "show", "snapshot name to load and save")
	return cmd
}

func serve(parent context.Context, addr, snapshotDir, showName string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	b := bridge.New(bridge.WithLogger(logger))

	// Demo schema: one plain cue and one media cue with a volume and a
	// speed element attached.
	light := cue.New()
	light.Set("name", "House Lights")

	media := cue.NewMediaCue()
	media.Set("name", "Walk-in Music")
	pipeline := cue.MediaOf(media)
	cue.AttachElement(pipeline, "volume", cue.NewVolume())
	cue.AttachElement(pipeline, "speed", cue.NewSpeed())

	objects := map[string]props.Holder{
		"house-lights":  light,
		"walk-in-music": media,
	}
	for name, obj := range objects {
		if err := b.Register(name, obj); err != nil {
			return err
		}
	}

	var snapshots *store.DiskStore
	if snapshotDir != "" {
		var err error
		snapshots, err = store.NewDiskStore(snapshotDir)
		if err != nil {
			return cuekiterrors.New("E302").Wrap(err)
		}
		loadSnapshot(ctx, logger, snapshots, showName, objects)
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", b.Handler())

	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	err := b.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if snapshots != nil {
		saveSnapshot(shutdownCtx, logger, snapshots, showName, objects)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadSnapshot merges a stored show snapshot into the registered objects.
// The snapshot maps object names to property mappings; unknown objects and
// properties are skipped.
func loadSnapshot(ctx context.Context, logger *slog.Logger, snapshots *store.DiskStore, showName string, objects map[string]props.Holder) {
	snapshot, err := snapshots.Load(ctx, showName)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("snapshot load failed", "show", showName, "error", err)
		}
		return
	}

	for name, obj := range objects {
		if values, ok := snapshot[name].(map[string]any); ok {
			obj.UpdateProperties(props.Map(values))
		}
	}
	logger.Info("snapshot loaded", "show", showName)
}

// saveSnapshot writes the sparse export of every registered object.
func saveSnapshot(ctx context.Context, logger *slog.Logger, snapshots *store.DiskStore, showName string, objects map[string]props.Holder) {
	snapshot := make(props.Map, len(objects))
	for name, obj := range objects {
		snapshot[name] = obj.Properties(false, nil)
	}

	if err := snapshots.Save(ctx, showName, snapshot); err != nil {
		logger.Error("snapshot save failed", "show", showName, "error", err)
		return
	}
	logger.Info("snapshot saved", "show", showName)
}

// Package daemon assembles the window manager: state store,
// reconciler, command dispatcher, IPC surface and config watcher,
// bound to a platform adapter.
package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/skyline/internal/command"
	"github.com/yourusername/skyline/internal/config"
	"github.com/yourusername/skyline/internal/ipc"
	"github.com/yourusername/skyline/internal/logging"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/reconciler"
	"github.com/yourusername/skyline/internal/store"
)

// Options configure a daemon run.
type Options struct {
	ConfigPath string
	Debug      bool

	// Timeout stops the loop after a fixed duration; zero runs until
	// a signal arrives. Used by tests.
	Timeout time.Duration
}

// Daemon is one assembled instance.
type Daemon struct {
	Store      *store.Store
	Reconciler *reconciler.Reconciler
	Driver     *reconciler.Driver
	Dispatcher *command.Dispatcher

	adapter platform.Adapter
	sa      platform.SAChannel
	lock    *ipc.Lock
	server  *ipc.Server
	watcher *config.Watcher
}

// New assembles a daemon over the given platform backend.
func New(adapter platform.Adapter, sa platform.SAChannel, cfg *config.Config) *Daemon {
	st := store.New()
	rec := reconciler.New(st, adapter, sa, cfg)
	drv := reconciler.NewDriver(rec)
	disp := command.NewDispatcher(rec)

	return &Daemon{
		Store:      st,
		Reconciler: rec,
		Driver:     drv,
		Dispatcher: disp,
		adapter:    adapter,
		sa:         sa,
	}
}

// Run starts the daemon and blocks until shutdown.
func Run(adapter platform.Adapter, sa platform.SAChannel, opts Options) error {
	if err := logging.Init(opts.Debug); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Close()

	lock, err := ipc.AcquireLock()
	if err != nil {
		return err
	}
	defer lock.Release()

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	d := New(adapter, sa, cfg)
	d.lock = lock

	server, err := ipc.Listen(d.Dispatcher, d.Driver)
	if err != nil {
		return err
	}
	d.server = server

	// Hot reload: the watcher goroutine only hands the parsed config
	// to the loop.
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.GetConfigPath()
	}
	if w, werr := config.Watch(cfgPath, d.Reconciler.SubmitConfig); werr == nil {
		d.watcher = w
	} else {
		logging.Warn().Err(werr).Msg("config watcher unavailable")
	}

	// Startup work: scan, validate, sync spaces against the config.
	d.Reconciler.Flags.Set(reconciler.FlagScanApps |
		reconciler.FlagSyncSpaces |
		reconciler.FlagRefreshWindowSpaces |
		reconciler.FlagAppFocusChanged |
		reconciler.FlagLayoutAll)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
		d.Driver.Stop()
	}()

	logging.Info().Msg("daemon started")
	if opts.Timeout > 0 {
		d.Driver.RunWithTimeout(opts.Timeout)
	} else {
		d.Driver.Run()
	}

	d.teardown()
	return nil
}

// teardown detaches external resources and releases retained handles.
func (d *Daemon) teardown() {
	d.Reconciler.ShuttingDown.Store(true)

	if d.watcher != nil {
		d.watcher.Close()
	}
	if d.server != nil {
		d.server.Close()
	}

	// Release every retained platform handle.
	var ids []platform.WindowID
	d.Store.Windows.Iter(func(w *store.WindowRecord) bool {
		ids = append(ids, w.ID)
		return true
	})
	for _, id := range ids {
		d.Store.Windows.Remove(id)
	}
	for _, pid := range d.Store.Apps.PIDs() {
		d.Store.Apps.Remove(pid)
	}

	logging.Info().Msg("daemon stopped")
}

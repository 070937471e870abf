package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/moorcore/pkg/config"
	"github.com/cuemby/moorcore/pkg/log"
	"github.com/cuemby/moorcore/pkg/metrics"
	"github.com/cuemby/moorcore/pkg/scheduler"
	"github.com/cuemby/moorcore/pkg/session"
	"github.com/cuemby/moorcore/pkg/storage"
	"github.com/cuemby/moorcore/pkg/task"
	"github.com/cuemby/moorcore/pkg/types"
	"github.com/cuemby/moorcore/pkg/worldstate"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "moorcore",
	Short:   "moorcore - a persistent multi-user world engine",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"moorcore version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)

	serveCmd.Flags().String("data-dir", "", "Data directory for the world-state database; overrides the config file")
	serveCmd.Flags().String("metrics-addr", "", "Listen address for /metrics, /health, /ready, /live; overrides the config file")

	bootstrapCmd.Flags().String("data-dir", "", "Data directory for the new world-state database; overrides the config file")
}

func loadConfig(cmd *cobra.Command) config.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if jsonOut, _ := cmd.Flags().GetBool("log-json"); jsonOut {
		cfg.Log.JSON = true
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Metrics.ListenAddr = addr
	}

	log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})
	return cfg
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create a new world-state database with object #0 (the system object)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		providers, err := worldstate.BoltProviders(store)
		if err != nil {
			return fmt.Errorf("bind relations: %w", err)
		}

		ws, err := worldstate.New(providers, 256)
		if err != nil {
			return fmt.Errorf("open world state: %w", err)
		}

		tx := ws.Begin(nil)
		sysobj, err := tx.CreateObject(nil, worldstate.CreateObjectAttrs{
			Name:     "System Object",
			Parent:   types.NOTHING,
			Location: types.NOTHING,
			Flags:    types.ObjectFlags(0).Set(types.FlagWizard).Set(types.FlagProgrammer),
		})
		if err != nil {
			return fmt.Errorf("create system object: %w", err)
		}
		if _, err := tx.Commit(); err != nil {
			return fmt.Errorf("commit bootstrap transaction: %w", err)
		}

		fmt.Printf("Bootstrapped world state in %s\n", cfg.DataDir)
		fmt.Printf("  System object: %s\n", sysobj)
		log.Info(fmt.Sprintf("world state bootstrapped in %s, system object %s", cfg.DataDir, sysobj))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler against a world-state database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			log.Error("failed to open storage")
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		providers, err := worldstate.BoltProviders(store)
		if err != nil {
			return fmt.Errorf("bind relations: %w", err)
		}

		ws, err := worldstate.New(providers, 256)
		if err != nil {
			return fmt.Errorf("open world state: %w", err)
		}
		log.Debug("world state opened")

		sess := session.NewBufferedSession(nil)
		sched := scheduler.NewScheduler(ws, sess, unimplementedExecutor, scheduler.Config{
			RetryLimit: cfg.Scheduler.RetryLimit,
		})
		sched.Start()
		defer sched.Stop()
		log.Info("scheduler started")

		collector := metrics.NewCollector(ws)
		collector.Start()
		defer collector.Stop()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("worldstate", true, "open")
		metrics.RegisterComponent("scheduler", true, "running")

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())

		errCh := make(chan error, 1)
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				log.Errorf("metrics server failed", err)
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Metrics.ListenAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			fmt.Printf("Received %s, shutting down\n", sig)
			return nil
		}
	},
}

// unimplementedExecutor is the placeholder Executor wired into `serve` until
// a real compiler/VM is plugged in; it immediately reports every task as a
// command execution error rather than hanging the scheduler.
func unimplementedExecutor(id task.ID, start task.Start, tx *worldstate.Transaction, resumeValue types.Var, sess session.Session, toTask <-chan scheduler.ToTaskMsg, out chan<- scheduler.FromTaskMsg) {
	out <- scheduler.FromTaskMsg{
		TaskID: id,
		Kind:   scheduler.FromTaskCommandError,
		Err:    fmt.Errorf("no compiler/VM wired into this build"),
	}
}

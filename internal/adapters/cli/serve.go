package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelengine/assetpipe/internal/infrastructure/config"
	"github.com/kestrelengine/assetpipe/internal/infrastructure/pidfile"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the asset pipeline as a long-lived process",
		Long: `Hold the pipeline open: acquire the PID file, pump deferred asset
events on the main goroutine, and persist the shader cache on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
			pf := pidfile.New(cfg.Daemon.PIDFile)
			if err := pf.Acquire(); err != nil {
				if !force {
					return fmt.Errorf("%w\nUse --force to kill the existing instance", err)
				}
				fmt.Println("Force mode enabled - killing existing instance...")
				if killErr := pf.KillExisting(); killErr != nil {
					return fmt.Errorf("failed to kill existing instance: %w", killErr)
				}
				if err := pf.Acquire(); err != nil {
					return fmt.Errorf("failed to acquire PID file after kill: %w", err)
				}
			}
			defer func() {
				if err := pf.Release(); err != nil {
					log.Printf("Warning: failed to release PID file: %v", err)
				}
			}()
			fmt.Println("PID file lock acquired")

			eng, err := NewEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()
			subscribeEventPrinter(eng.Events)

			paks := len(cfg.Paks.FSRoots)
			if cfg.Paks.DBDSN != "" {
				paks++
			}
			fmt.Printf("Asset pipeline up: %d workers, %d pak(s)\n", cfg.Workers.Count, paks)

			// The event bus is deferred by design: loads complete on worker
			// goroutines, and this loop is the "main thread" that delivers
			// their notifications.
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					eng.Events.Pump()
				case sig := <-stop:
					fmt.Printf("\nReceived %s, shutting down...\n", sig)
					eng.Events.Pump()
					if err := eng.SaveShaderCache(); err != nil {
						log.Printf("Warning: failed to save shader cache: %v", err)
					}
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Kill any existing instance and start a new one")

	return cmd
}

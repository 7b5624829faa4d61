package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelengine/assetpipe/internal/application/eventbus"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/internal/infrastructure/config"
)

// NewLoadCommand creates the load command
func NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <asset-id>",
		Short: "Load one asset and print the outcome",
		Long:  `Resolve the asset's metadata through the configured paks, load it (and its dependencies) on the worker pool, and print the outcome.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			eng, err := NewEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			id := asset.InternID(args[0])
			ref, ok := eng.Manager.Load(id)

			// Deliver the deferred notifications the load queued up.
			eng.Events.Pump()

			if !ok {
				return fmt.Errorf("failed to load %q", args[0])
			}

			fmt.Printf("✓ Loaded %s\n", ref.Asset.Name())
			if verbose {
				fmt.Printf("  Asset type: %T\n", ref.Asset)
			}
			return nil
		},
	}

	return cmd
}

// NewGCCommand creates the gc command
func NewGCCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Evict cached assets no longer strongly held",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			eng, err := NewEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			before := eng.Manager.Cached()
			eng.Manager.GC()
			after := eng.Manager.Cached()

			fmt.Printf("✓ GC complete: %d entries evicted, %d remain\n", before-after, after)
			return nil
		},
	}

	return cmd
}

// subscribeEventPrinter attaches a handler that narrates asset lifecycle
// events as they are pumped, the way the serve command surfaces them.
func subscribeEventPrinter(bus *eventbus.Bus) {
	bus.Subscribe(func(e eventbus.Event) {
		switch ev := e.(type) {
		case eventbus.Loaded:
			fmt.Printf("loaded   %s\n", ev.ID)
		case eventbus.FailedLoad:
			fmt.Printf("failed   %s\n", ev.ID)
		}
	})
}

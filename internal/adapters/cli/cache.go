package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/internal/infrastructure/config"
)

// NewCacheCommand creates the cache command group
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shader bytecode cache",
	}

	cmd.AddCommand(newCacheInfoCommand())
	cmd.AddCommand(newCacheWarmCommand())
	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print shader cache entry count and byte size",
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

			info := eng.ShaderCache.Info()
			fmt.Printf("Shader cache: %s\n", cfg.Shaders.CachePath)
			fmt.Printf("  Entries:  %d\n", info.Entries)
			fmt.Printf("  Bytecode: %d bytes\n", info.BytecodeBytes)
			return nil
		},
	}
}

func newCacheWarmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "warm <asset-id>",
		Short: "Build a shader permutation and commit it to the cache",
		Long:  `Load the named shader asset so its compiled bytecode lands in the shader cache, then persist the cache to disk.`,
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
			if _, ok := eng.Manager.Load(id); !ok {
				return fmt.Errorf("failed to build %q", args[0])
			}
			if err := eng.SaveShaderCache(); err != nil {
				return fmt.Errorf("failed to save shader cache: %w", err)
			}

			info := eng.ShaderCache.Info()
			fmt.Printf("✓ Warmed %s (%d entries, %d bytes of bytecode)\n", args[0], info.Entries, info.BytecodeBytes)
			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted shader cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := os.Remove(cfg.Shaders.CachePath); err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Shader cache already empty")
					return nil
				}
				return err
			}
			fmt.Printf("✓ Removed %s\n", cfg.Shaders.CachePath)
			return nil
		},
	}
}

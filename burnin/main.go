package main

import (
	"fmt"
	"os"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/samples"
	"github.com/Tamagotono/CycleTester/pkg/storage"
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

var (
	configFile string
	testsDir   string
)

var rootCmd = &cobra.Command{
	Use:   "burnin",
	Short: "Headless cycle tester",
	Long: `Run PCBA burn-in tests without the tester hardware.

Tests are read from --dir, or from the built-in samples when it is not set.
The relay is driven over a USB serial port, or mocked.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&testsDir, "dir", "", "Directory with test files (default: built-in samples)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configFile)
}

func volume() storage.Volume {
	if testsDir == "" {
		return samples.Volume()
	}
	return storage.NewDir(testsDir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

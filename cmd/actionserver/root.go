package main

import (
	"github.com/milk9111/actionengine/catalog"
	"github.com/milk9111/actionengine/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "actionserver",
	Short: "Authoritative timed action server",
	Long: `actionserver runs the authoritative simulation for timed character
actions and replicates their effects to websocket observers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml)")
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogDir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(cfg.CatalogDir)
}

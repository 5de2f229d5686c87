package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/milk9111/actionengine/config"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Load, validate and list action descriptors",
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().String("dir", "", "catalog directory (overrides catalog_dir)")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.CatalogDir = dir
	}
	content, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tLOGIC\tEXEC\tDURATION\tBLOCKING\tFLAGS\tFILE")
	for _, t := range content.Types() {
		d, _ := content.Lookup(t)
		fmt.Fprintf(tw, "%s\t%s\t%.2fs\t%s\t%s\t%s\t%s\n",
			d.Type, d.Logic, d.ExecTimeSeconds, duration(d.DurationSeconds), d.BlockingMode, flags(d.Interruptible, d.Exclusive, d.LockMovement), content.File(t))
	}
	return tw.Flush()
}

func duration(s float64) string {
	if s <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fs", s)
}

func flags(interruptible, exclusive, lockMovement bool) string {
	out := ""
	add := func(set bool, name string) {
		if !set {
			return
		}
		if out != "" {
			out += ","
		}
		out += name
	}
	add(interruptible, "interruptible")
	add(exclusive, "exclusive")
	add(lockMovement, "lock_movement")
	if out == "" {
		return "-"
	}
	return out
}

package main

import (
	"fmt"
	"time"

	"github.com/claude/ironpulse/internal/importer"
	"github.com/spf13/cobra"
)

var (
	backupOut    string
	backupIn     string
	backupDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write plans and alarms to a snapshot file",
	Long: `Write plans and alarms to a JSON snapshot file. Names ending in .gz
are gzip-compressed. Sessions and pending codes are not exported.`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge a snapshot file into the store",
	Long: `Merge a snapshot file into the store. Plans and alarms whose id is
already stored are skipped; everything else is added.`,
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&backupOut, "out", "o", "", "snapshot file to write")
	exportCmd.MarkFlagRequired("out")
	importCmd.Flags().StringVarP(&backupIn, "file", "f", "", "snapshot file to read")
	importCmd.Flags().BoolVar(&backupDryRun, "dry-run", false, "report what would be imported without writing")
	importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := importer.CreateFile(backupOut)
	if err != nil {
		return err
	}
	snap, err := importer.Export(cmd.Context(), a.store, w, time.Now())
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d plans and %d alarms to %s.\n", len(snap.Plans), len(snap.Alarms), backupOut)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := importer.OpenFile(backupIn)
	if err != nil {
		return err
	}
	defer r.Close()

	stats, err := importer.New(a.store, logger, backupDryRun).Import(cmd.Context(), r)
	if err != nil {
		return err
	}
	prefix := "Imported"
	if backupDryRun {
		prefix = "Would import"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d plans (%d already present) and %d alarms (%d already present); %d rejected.\n",
		prefix, stats.PlansImported, stats.PlansDuplicated, stats.AlarmsImported, stats.AlarmsDuplicated, stats.Rejected)
	return nil
}

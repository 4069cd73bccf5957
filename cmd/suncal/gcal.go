package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"suncal/internal/config"
	"suncal/internal/gcal"
	"suncal/internal/suncal"
)

var gcalCmd = &cobra.Command{
	Use:   "gcal",
	Short: "Insert events into a Google calendar",
	Long: `gcal computes the requested events and inserts them into the Google
calendar titled --cal, creating it in --timezone when it does not exist.
Events are sent in batches of at most 1000.`,
	PreRunE: bindFlags,
	RunE:    runGcal,
}

func init() {
	addExportFlags(gcalCmd)
	gcalCmd.Flags().String("credentials", "", "service account or OAuth client JSON (default: Application Default Credentials)")
	rootCmd.AddCommand(gcalCmd)
}

func runGcal(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	a, err := buildArgs(cfg, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.Dev {
		printArgs(out, a)
		return nil
	}

	events, err := suncal.CreateCalendarEvents(a.request())
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(out, noEventsMessage(a.Kind))
		return nil
	}

	creds := viper.GetString("credentials")
	if creds == "" {
		creds = cfg.Google.CredentialsFile
	}

	ctx := cmd.Context()
	svc, err := gcal.NewService(ctx, creds)
	if err != nil {
		return err
	}
	exp := gcal.NewExporter(svc, exporterOptions(cfg.Google))

	calID, err := exp.CalendarID(ctx, a.Title, a.Location.Timezone)
	if err != nil {
		return err
	}
	return reportBatches(out, exp.Export(ctx, calID, events))
}

func exporterOptions(g config.GoogleConfig) gcal.Options {
	return gcal.Options{
		BatchSize:   g.BatchSize,
		Concurrency: g.Concurrency,
		RatePerSec:  g.RatePerSec,
		Retries:     g.Retries,
	}
}

// reportBatches prints one line per batch and fails if any batch did.
func reportBatches(w io.Writer, results []gcal.BatchResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "batch %d: %d/%d inserted: %v\n", r.Index+1, r.Inserted, r.Size, r.Err)
			continue
		}
		fmt.Fprintf(w, "batch %d: %d/%d inserted\n", r.Index+1, r.Inserted, r.Size)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d batches failed", failed, len(results))
	}
	return nil
}

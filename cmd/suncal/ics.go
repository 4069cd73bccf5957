package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"suncal/internal/ics"
	appLog "suncal/internal/log"
	"suncal/internal/model"
	"suncal/internal/suncal"
)

var icsCmd = &cobra.Command{
	Use:   "ics",
	Short: "Write events to an .ics file",
	Long: `ics computes the requested events and appends them as an iCalendar
document to --filename, or to a file named after the calendar title, zone
and current time.`,
	PreRunE: bindFlags,
	RunE:    runICS,
}

func init() {
	addExportFlags(icsCmd)
	icsCmd.Flags().String("filename", "", "output file; .ics is appended if missing")
	rootCmd.AddCommand(icsCmd)
}

func runICS(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	now := time.Now()
	a, err := buildArgs(cfg, now)
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

	path, err := writeICS(a, events, viper.GetString("filename"), now)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d events written to %s\n", len(events), path)
	return nil
}

// writeICS appends events to filename, or to the generated name when
// filename is empty, and returns the path written.
func writeICS(a exportArgs, events []model.CalendarEvent, filename string, now time.Time) (string, error) {
	path := ics.Filename(a.Title, a.Location.Timezone, now)
	if filename != "" {
		path = ics.EnsureExt(filename)
	}

	lines := ics.Encode(ics.CalendarMeta{Name: a.Title, Timezone: a.Location.Timezone, Stamp: now}, events)
	if err := ics.AppendLines(lines, path); err != nil {
		return "", err
	}
	appLog.Info("ics written", "path", path, "events", len(events))
	return path, nil
}

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"suncal/internal/astro"
	"suncal/internal/config"
	"suncal/internal/suncal"
	"suncal/internal/timeutil"
)

// exportArgs is what the gcal and ics commands compute and where.
type exportArgs struct {
	Kind     suncal.EventKind
	From, To timeutil.Date
	Location astro.Location
	Title    string
	Dev      bool
}

func (a exportArgs) request() suncal.Request {
	return suncal.Request{Kind: a.Kind, From: a.From, To: a.To, Location: a.Location}
}

func addExportFlags(cmd *cobra.Command) {
	kinds := make([]string, 0, len(suncal.EventKinds()))
	for _, k := range suncal.EventKinds() {
		kinds = append(kinds, string(k))
	}

	kind := suncal.Sunrise
	f := cmd.Flags()
	f.Var(&kind, "event", "event to compute: "+strings.Join(kinds, ", "))
	f.String("from", "", "first day, YYYY-MM-DD (default today)")
	f.String("to", "", "last day, YYYY-MM-DD, inclusive (default from + horizon_days - 1)")
	f.Float64("long", 0, "longitude in degrees, east positive")
	f.Float64("lat", 0, "latitude in degrees, north positive")
	f.String("timezone", "", "IANA zone (default: the zone at the coordinates)")
	f.String("cal", "", "calendar title (default calendar_title from config)")
	f.Bool("dev", false, "print the parsed arguments and exit")
}

// bindFlags makes the running command's flags visible through viper, so
// SUNCAL_* env vars fill in what the command line leaves out.
func bindFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

// buildArgs resolves the export arguments from flags and env, with cfg
// supplying the location, title and horizon when they are not given.
func buildArgs(cfg *config.Config, now time.Time) (exportArgs, error) {
	var a exportArgs

	kind := suncal.Sunrise
	if s := viper.GetString("event"); s != "" {
		k, err := suncal.ParseEventKind(s)
		if err != nil {
			return a, err
		}
		kind = k
	}

	loc := cfg.Location
	if viper.IsSet("lat") || viper.IsSet("long") {
		loc = astro.Location{
			Latitude:  viper.GetFloat64("lat"),
			Longitude: viper.GetFloat64("long"),
		}
	}
	if tz := viper.GetString("timezone"); tz != "" {
		loc.Timezone = tz
	}
	if loc.Timezone == "" {
		tz, err := timeutil.TimezoneAt(loc.Latitude, loc.Longitude)
		if err != nil {
			return a, err
		}
		loc.Timezone = tz
	}
	zone, err := timeutil.LoadLocation(loc.Timezone)
	if err != nil {
		return a, err
	}

	from := timeutil.DateOf(now.In(zone))
	if s := viper.GetString("from"); s != "" {
		if from, err = timeutil.ParseDate(s); err != nil {
			return a, fmt.Errorf("--from: %w", err)
		}
	}
	to := from.AddDays(max(cfg.HorizonDays, 1) - 1)
	if s := viper.GetString("to"); s != "" {
		if to, err = timeutil.ParseDate(s); err != nil {
			return a, fmt.Errorf("--to: %w", err)
		}
	}

	title := viper.GetString("cal")
	if title == "" {
		title = cfg.CalendarTitle
	}

	a = exportArgs{
		Kind:     kind,
		From:     from,
		To:       to,
		Location: loc,
		Title:    title,
		Dev:      viper.GetBool("dev"),
	}
	return a, a.request().Validate()
}

func printArgs(w io.Writer, a exportArgs) {
	fmt.Fprintf(w, "event:     %s\n", a.Kind)
	fmt.Fprintf(w, "from:      %s\n", a.From)
	fmt.Fprintf(w, "to:        %s\n", a.To)
	fmt.Fprintf(w, "longitude: %g\n", a.Location.Longitude)
	fmt.Fprintf(w, "latitude:  %g\n", a.Location.Latitude)
	fmt.Fprintf(w, "timezone:  %s\n", a.Location.Timezone)
	fmt.Fprintf(w, "calendar:  %s\n", a.Title)
}

func noEventsMessage(k suncal.EventKind) string {
	return fmt.Sprintf("*** %s could not be calculated for the specified location. No calendar events created. ***", k.DisplayName())
}

package ics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ext is the file extension of exported calendars.
const Ext = ".ics"

// Filename builds the default export name from the calendar title, its
// zone and the local time of the export:
//
//	Filename("sonne", "Europe/Berlin", 2021-05-10 10:00:00) == "Sonne_Europe-Berlin_20210510_100000.ics"
func Filename(title, tz string, now time.Time) string {
	title = strings.Join(strings.Fields(title), "-")
	title = cases.Title(language.Und, cases.NoLower).String(title)
	zone := strings.ReplaceAll(tz, "/", "-")
	return fmt.Sprintf("%s_%s_%s%s", title, zone, now.Format("20060102_150405"), Ext)
}

// EnsureExt appends ".ics" unless name already ends with it.
func EnsureExt(name string) string {
	if strings.EqualFold(filepath.Ext(name), Ext) {
		return name
	}
	return name + Ext
}

// AppendLines appends lines to path, one per line, creating the file with
// mode 0644 if needed.
func AppendLines(lines []string, path string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err = w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return w.Flush()
}

// Command suncal computes sun and moon events for a location and exports
// them to Google Calendar, to .ics files, or serves them as calendar feeds.
package main

func main() {
	Execute()
}

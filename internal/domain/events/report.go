package events

import "time"

// ReportFilename is the suggested name for a participant report downloaded on day.
func ReportFilename(day time.Time) string {
	return "participants-report-" + day.UTC().Format("2006-01-02") + ".pdf"
}

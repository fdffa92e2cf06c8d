package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/muhdb91/therinproperty/internal/models"
)

// Header row of the leads report. Column order is fixed.
var csvHeader = []string{
	"Client Name", "Email", "Phone", "Target Property",
	"Agent Referral", "Current Status", "Date Submitted",
}

// LeadsCSV renders one row per lead in the given order. Fields containing
// delimiters, quotes or newlines are quoted by the encoder, so free-text
// names and emails cannot corrupt a row.
func LeadsCSV(leads []models.Lead) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, l := range leads {
		row := []string{
			l.Name, l.Email, l.Phone, l.PropertyName,
			l.AgentReferral, string(l.Status), formatSubmitted(l.Timestamp),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row for lead %s: %w", l.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportFilename embeds the current date, matching the original download
// name.
func ReportFilename(now time.Time) string {
	return fmt.Sprintf("Leads_Report_%s.csv", now.UTC().Format("2006-01-02"))
}

func formatSubmitted(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Format("2006-01-02 15:04:05")
}

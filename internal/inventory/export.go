package inventory

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// WriteUnitsCSV serialises units to a flat CSV representation.
func WriteUnitsCSV(w io.Writer, units []Unit) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Code", "Status", "Manufactured", "Expires", "Verified", "Customer", "Customer Phone", "Attributed At"}); err != nil {
		return err
	}
	for _, u := range units {
		if err := writer.Write([]string{
			u.Code,
			string(u.Status),
			u.ManufacturedOn.Format(dateLayout),
			formatDate(u.ExpiresOn),
			strconv.FormatBool(u.Verified),
			deref(u.CustomerName),
			deref(u.CustomerPhone),
			formatTime(u.AttributedAt),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

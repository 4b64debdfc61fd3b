package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// WriteCSV renders bulk records for download.
func WriteCSV(rows []BulkRecord) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	header := []string{"created_at", "operation", "product_id", "scope_kind", "mode", "target", "verified", "affected", "skipped_verified", "admin_override", "actor_id", "actor_name"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, rec := range rows {
		record := []string{
			rec.CreatedAt.UTC().Format(time.RFC3339),
			string(rec.Operation),
			rec.ProductID.String(),
			rec.ScopeKind,
			rec.Mode,
			strconv.Itoa(rec.TargetCount),
			strconv.Itoa(rec.VerifiedCount),
			strconv.FormatInt(rec.AffectedCount, 10),
			strconv.Itoa(rec.SkippedVerified),
			strconv.FormatBool(rec.AdminOverride),
			rec.ActorID,
			rec.ActorName,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

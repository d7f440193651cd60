package transform

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// timestampLayouts are tried in order. Source timestamps are ISO 8601 text;
// some snapshots drop the zone suffix or use a space separator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// timestamp converts a source timestamp string to a UTC time. An absent
// value stays nil; an unparseable value degrades to nil with a warning
// rather than failing the record.
func (t *Transformer) timestamp(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, *s); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	t.log.Warn("unparseable timestamp", zap.String("value", *s))
	return nil
}

// settings parses an organization's settings JSON into a bson document.
// Absent or unparseable settings are omitted, same policy as timestamps.
func (t *Transformer) settings(orgID int64, raw *string) bson.M {
	if raw == nil || *raw == "" {
		return nil
	}
	var doc bson.M
	if err := json.Unmarshal([]byte(*raw), &doc); err != nil {
		t.log.Warn("unparseable organization settings",
			zap.Int64("org_id", orgID), zap.Error(err))
		return nil
	}
	if len(doc) == 0 {
		return nil
	}
	return doc
}

package domain

import "time"

// MaxEvictionHistory is the number of EvictionRecords retained for undo.
const MaxEvictionHistory = 20

// EvictionRecord is the undo unit for one closed tab.
// Records sharing ClosedAt form a batch.
type EvictionRecord struct {
	TabID           int       `json:"tab_id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	ClosedAt        time.Time `json:"closed_at"`
	MinutesInactive int       `json:"minutes_inactive"`
}

// LastBatch returns the records sharing the most recent ClosedAt
// and the remaining history, both in original order.
func LastBatch(history []EvictionRecord) (batch, rest []EvictionRecord) {
	if len(history) == 0 {
		return nil, nil
	}
	latest := history[0].ClosedAt
	for _, r := range history[1:] {
		if r.ClosedAt.After(latest) {
			latest = r.ClosedAt
		}
	}
	for _, r := range history {
		if r.ClosedAt.Equal(latest) {
			batch = append(batch, r)
		} else {
			rest = append(rest, r)
		}
	}
	return batch, rest
}

// TrimHistory keeps only the newest limit records.
func TrimHistory(history []EvictionRecord, limit int) []EvictionRecord {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return append([]EvictionRecord(nil), history[len(history)-limit:]...)
}

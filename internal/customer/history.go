package customer

import "time"

// HistoryEntry is one append-only record of a status transition; every
// customer and document transition lands in the customer_history table and
// is never updated afterwards.
type HistoryEntry struct {
	ID         string
	CustomerID string
	Entity     string // "Customer" or "Document"
	EntityID   string
	FromStatus string
	ToStatus   string
	RecordedAt time.Time
}

// internal/domain/models/counter.go
package models

// CompletedSessionsCounterID is the _id of the single global row that counts
// reconciled sessions.
const CompletedSessionsCounterID = "completed_sessions"

// Counter is a named monotonic counter stored in the counters collection.
type Counter struct {
	ID    string `bson:"_id" json:"id"`
	Count int64  `bson:"count" json:"count"`
}

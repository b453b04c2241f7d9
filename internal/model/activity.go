package model

import "time"

// ActivityEntry is one row of the archive's audit trail (`activity_log`
// table). Entries are written by the queue consumer from auth events, not
// by request handlers directly, so a broker outage never blocks a login.
type ActivityEntry struct {
	ID         uint64    // activity_log.id
	EventType  string    // activity_log.event_type
	UserID     uint64    // activity_log.user_id (0 when the event has no account)
	Email      string    // activity_log.email
	Detail     string    // activity_log.detail
	OccurredAt time.Time // activity_log.occurred_at
	CreatedAt  time.Time // activity_log.created_at
}

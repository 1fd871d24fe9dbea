package domain

import "time"

// Notification is the message enqueued when a status transition touches a
// content kind configured as a notification trigger.
type Notification struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"itemId"`
	Kind        string    `json:"kind"`
	NewStatusID string    `json:"newStatusId"`
	Roles       []string  `json:"roles,omitempty"`
	Time        time.Time `json:"time"`
}

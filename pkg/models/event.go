package models

import "time"

// EventType represents the kind of change made to the photo collection.
type EventType string

const (
	EventPhotoAdded    EventType = "photo_added"
	EventPhotoEnriched EventType = "photo_enriched"
	EventPhotoLiked    EventType = "photo_liked"
	EventPhotoDeleted  EventType = "photo_deleted"
)

// Event describes a collection change. Subscribers use it to rebuild
// derived state such as map clusters.
type Event struct {
	Type      EventType `json:"type"`
	PhotoIDs  []string  `json:"photo_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent creates an event for the given photo ids.
func NewEvent(t EventType, ids ...string) Event {
	return Event{
		Type:      t,
		PhotoIDs:  ids,
		CreatedAt: time.Now(),
	}
}

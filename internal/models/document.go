package models

import "time"

// StoredDocument is the Firestore record of one validated document of an owner.
// Body holds the document tree as plain maps and slices.
type StoredDocument struct {
	OwnerID       string         `firestore:"ownerId"`
	Kind          string         `firestore:"kind"`
	SchemaVersion string         `firestore:"schemaVersion"`
	Body          map[string]any `firestore:"body"`
	StoredAt      time.Time      `firestore:"storedAt"`
}

// CompletionEvent records that an owner finished (or otherwise resolved) one item of a
// plan. ID is derived from the (owner, plan, item) triple, so it is unique per triple.
type CompletionEvent struct {
	ID         string    `firestore:"-" json:"id"`
	OwnerID    string    `firestore:"ownerId" json:"ownerId"`
	PlanID     string    `firestore:"planId" json:"planId"`
	ItemID     string    `firestore:"itemId" json:"itemId"`
	Status     string    `firestore:"status" json:"status"`
	Note       string    `firestore:"note,omitempty" json:"note,omitempty"`
	RecordedAt time.Time `firestore:"recordedAt" json:"recordedAt"`
}

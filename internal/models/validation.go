package models

import "time"

// Validation labels.
const (
	LabelCorrect   = "correct"
	LabelIncorrect = "incorrect"
	LabelFlagged   = "flagged"
)

// Validation modes. An owner validation short-circuits further sampling of
// the example.
const (
	ModeUser  = "user"
	ModeOwner = "owner"
)

// Validation is one judgment cast by a user on an Example.
type Validation struct {
	ID           int64     `db:"id" json:"id"`
	EID          int64     `db:"eid" json:"eid"`
	UID          int64     `db:"uid" json:"uid"`
	Label        string    `db:"label" json:"label"`
	Mode         string    `db:"mode" json:"mode"`
	MetadataJSON string    `db:"metadata_json" json:"metadata_json"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ValidationCounts aggregates the per-label validation state of one example.
type ValidationCounts struct {
	Correct        int `db:"cnt_correct" json:"correct"`
	Incorrect      int `db:"cnt_incorrect" json:"incorrect"`
	Flagged        int `db:"cnt_flagged" json:"flagged"`
	OwnerValidated int `db:"cnt_owner_validated" json:"owner_validated"`
}

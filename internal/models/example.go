package models

import "time"

// Example is one attempted collection instance: a human (optionally with a
// model in the loop) responded to a Context within a task round.
type Example struct {
	ID                int64     `db:"id" json:"id"`
	CID               int64     `db:"cid" json:"cid"`
	UID               *int64    `db:"uid" json:"-"`
	Tag               *string   `db:"tag" json:"tag"`
	InputJSON         string    `db:"input_json" json:"input_json"`
	OutputJSON        string    `db:"output_json" json:"output_json"`
	MetadataJSON      string    `db:"metadata_json" json:"metadata_json"`
	ModelEndpointName *string   `db:"model_endpoint_name" json:"model_endpoint_name"`
	Split             string    `db:"split" json:"-"`
	ModelWrong        *bool     `db:"model_wrong" json:"model_wrong"`
	Retracted         bool      `db:"retracted" json:"retracted"`
	Flagged           bool      `db:"flagged" json:"flagged"`
	GeneratedAt       time.Time `db:"generated_datetime" json:"generated_datetime"`
	TimeElapsedMS     *int64    `db:"time_elapsed" json:"time_elapsed"`
	TotalVerified     int       `db:"total_verified" json:"total_verified"`
}

// AnonymousUID is the sentinel submitter identity for crowd workers. Examples
// submitted under it carry no user reference; the worker is identified only by
// the annotator_id key in the example metadata.
const AnonymousUID = "turk"

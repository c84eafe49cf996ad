package models

// Context is the round-scoped prompt/document shown to an annotator.
// RID references the round row, not the per-task round ordinal.
type Context struct {
	ID          int64  `db:"id" json:"id"`
	RID         int64  `db:"r_realid" json:"r_realid"`
	ContextJSON string `db:"context_json" json:"context_json"`
}

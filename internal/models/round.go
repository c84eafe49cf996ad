package models

// Round is a time-boxed phase of a Task. RID is the round ordinal within the
// task; Secret feeds signature derivation and is never returned to clients.
type Round struct {
	ID     int64  `db:"id" json:"id"`
	TID    int64  `db:"tid" json:"tid"`
	RID    int64  `db:"rid" json:"rid"`
	Secret string `db:"secret" json:"-"`
}

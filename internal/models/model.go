package models

// Model is a deployed model endpoint. Secret is shared with the serving
// endpoint and used by the delegated signature scheme.
type Model struct {
	ID           int64  `db:"id" json:"id"`
	TID          int64  `db:"tid" json:"tid"`
	Name         string `db:"name" json:"name"`
	EndpointName string `db:"endpoint_name" json:"endpoint_name"`
	Secret       string `db:"secret" json:"-"`
}

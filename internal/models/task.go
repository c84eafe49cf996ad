package models

// Task declares a task code (e.g. "qa", "nli", "vqa", "hs", "sentiment") and
// the annotation schema its examples must conform to.
type Task struct {
	ID                   int64  `db:"id" json:"id"`
	Name                 string `db:"name" json:"name"`
	TaskCode             string `db:"task_code" json:"task_code"`
	AnnotationConfigJSON string `db:"annotation_config_json" json:"-"`
}

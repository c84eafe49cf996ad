package service

import "errors"

// Admission rejection kinds. The HTTP boundary collapses all of them into one
// opaque rejection; tests and logs distinguish them.
var (
	ErrAuthorship             = errors.New("anonymous submission without annotator id")
	ErrContextMismatch        = errors.New("context does not match declared round/task")
	ErrSchemaValidation       = errors.New("annotation does not conform to task schema")
	ErrSignatureMismatch      = errors.New("model signature mismatch")
	ErrUnsupportedOutputShape = errors.New("unsupported task/output shape")
	ErrPersistence            = errors.New("failed to persist example")
)

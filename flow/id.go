package flow

import "github.com/google/uuid"

// NewID produces a stable unique block id for content that arrives without
// one (document readers, tests). Ids only have to be unique within one
// layout pass.
func NewID() string {
	return uuid.NewString()
}

package entity

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/stridesim/stride/collision"
)

// HeightField is a static terrain patch entity.
type HeightField struct {
	Entity
	field *collision.HeightField
}

func NewHeightField(ref uuid.UUID, handle collision.Handle, origin mgl32.Vec3, field *collision.HeightField) *HeightField {
	return &HeightField{
		Entity: newEntity(ref, handle, origin),
		field:  field,
	}
}

func (h *HeightField) Field() *collision.HeightField {
	return h.field
}

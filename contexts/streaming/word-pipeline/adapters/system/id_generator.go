package system

import "github.com/google/uuid"

// UUIDGenerator issues random message identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

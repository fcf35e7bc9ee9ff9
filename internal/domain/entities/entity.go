package entities

import (
	"fmt"
	"reflect"
)

// Entity is an identity-bearing record persisted in the store.
// The identity is assigned by the store on insert; callers only read it.
type Entity interface {
	GetID() int64
	SetID(id int64)
}

// Base carries the store-assigned identity. Embed it by value in concrete entities.
type Base struct {
	ID int64 `json:"id"`
}

// GetID returns the store-assigned identity, 0 before the first insert.
func (b *Base) GetID() int64 {
	return b.ID
}

// SetID is used by the commit path after an insert.
func (b *Base) SetID(id int64) {
	b.ID = id
}

// IsPersisted reports whether the store has assigned an identity.
func (b *Base) IsPersisted() bool {
	return b.ID != 0
}

func (b *Base) String() string {
	return fmt.Sprintf("Id: %d - ", b.ID)
}

// IsNil reports whether e is nil or a typed nil pointer.
func IsNil(e Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

package store

import (
	"testing"

	"github.com/google/uuid"
)

func TestMemory(t *testing.T) {
	testStore(t, NewMemory(), uuid.NewString(), "not-a-uuid")
}

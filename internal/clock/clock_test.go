package clock

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStubAdvance(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	c := NewStub(start)

	c.Advance(90 * time.Minute)
	if got, want := c.Now(), start.Add(90*time.Minute); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("Set did not move the clock back")
	}
}

func TestSequence(t *testing.T) {
	var g Sequence
	for i, want := range []string{"id-1", "id-2", "id-3"} {
		if got := g.NewID(); got != want {
			t.Errorf("call %d: NewID() = %q, want %q", i, got, want)
		}
	}
}

func TestUUIDs(t *testing.T) {
	id := UUIDs{}.NewID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("NewID() = %q is not a UUID: %v", id, err)
	}
	if id == (UUIDs{}).NewID() {
		t.Error("two calls returned the same id")
	}
}

func TestOrDefaults(t *testing.T) {
	if _, ok := OrReal(nil).(Real); !ok {
		t.Error("OrReal(nil) should be the system clock")
	}
	s := NewStub(time.Time{})
	if OrReal(s) != Clock(s) {
		t.Error("OrReal should keep a non-nil clock")
	}
	if _, ok := OrUUIDs(nil).(UUIDs); !ok {
		t.Error("OrUUIDs(nil) should generate UUIDs")
	}
}

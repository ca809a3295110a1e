package model

import (
	"sort"
	"time"
)

// PendingOwner marks records the backend has not assigned an owner to yet.
const PendingOwner = "optimistic"

// State tells confirmed records (returned by the backend) apart from
// provisional ones synthesized locally by an optimistic create.
type State int

const (
	Confirmed State = iota
	Provisional
)

func (s State) String() string {
	if s == Provisional {
		return "provisional"
	}
	return "confirmed"
}

// Todo is the domain model for a todo entry.
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	State     State     `json:"-"`
}

func (t Todo) IsProvisional() bool { return t.State == Provisional }

// Snapshot is an ordered view of the remote list. Once installed in a cache
// it is never modified; callers Clone before changing anything.
type Snapshot []Todo

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Find returns the index of the record with the given id, or -1.
func (s Snapshot) Find(id string) int {
	for i := range s {
		if s[i].ID == id {
			return i
		}
	}
	return -1
}

// Stats counts completed and pending records for headers.
func (s Snapshot) Stats() (done, pending int) {
	for _, t := range s {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// SortByCreation orders todos oldest first, falling back to id for ties.
func SortByCreation(todos []Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.Before(todos[j].CreatedAt)
		}
		return todos[i].ID < todos[j].ID
	})
}

// Package store holds the read-only user table served by the API.
package store

import (
	"errors"
	"fmt"
	"sort"

	"userinfo-service/internal/models"
)

var ErrDuplicateID = errors.New("duplicate user id")

// Table maps user ids to records. It is built once and never written to
// afterwards, so concurrent readers need no locking.
type Table struct {
	users map[int]models.User
}

// NewTable keys every record by its own ID.
func NewTable(users ...models.User) (*Table, error) {
	m := make(map[int]models.User, len(users))
	for _, u := range users {
		if _, exists := m[u.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, u.ID)
		}
		m[u.ID] = u
	}
	return &Table{users: m}, nil
}

// Default returns the table the service ships with.
func Default() *Table {
	t, err := NewTable(
		models.User{ID: 1, Name: "admin", Role: models.RoleAdmin},
		models.User{ID: 2, Name: "marc", Role: models.RoleUser},
		models.User{ID: 3, Name: "jordi", Role: models.RoleUser},
	)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Lookup(id int) (models.User, bool) {
	u, ok := t.users[id]
	return u, ok
}

func (t *Table) Len() int {
	return len(t.users)
}

// IDs returns the known ids in ascending order.
func (t *Table) IDs() []int {
	ids := make([]int, 0, len(t.users))
	for id := range t.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

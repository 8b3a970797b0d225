package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userinfo-service/internal/models"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, []int{1, 2, 3}, tbl.IDs())

	tests := []struct {
		id   int
		want models.User
	}{
		{1, models.User{ID: 1, Name: "admin", Role: "admin"}},
		{2, models.User{ID: 2, Name: "marc", Role: "user"}},
		{3, models.User{ID: 3, Name: "jordi", Role: "user"}},
	}
	for _, tt := range tests {
		got, ok := tbl.Lookup(tt.id)
		require.True(t, ok, "id %d", tt.id)
		assert.Equal(t, tt.want, got)
	}
}

func TestKeysMatchRecordIDs(t *testing.T) {
	tbl := Default()
	for _, id := range tbl.IDs() {
		u, ok := tbl.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, id, u.ID)
	}
}

func TestLookupUnknown(t *testing.T) {
	tbl := Default()
	for _, id := range []int{0, -1, 4, 99} {
		_, ok := tbl.Lookup(id)
		assert.False(t, ok, "id %d", id)
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable(
		models.User{ID: 7, Name: "a", Role: models.RoleUser},
		models.User{ID: 7, Name: "b", Role: models.RoleUser},
	)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestConcurrentLookups(t *testing.T) {
	tbl := Default()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := tbl.Lookup(i%3 + 1)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}

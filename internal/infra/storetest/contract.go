// Package storetest is the behavioural contract every port.DocumentStore
// backend must satisfy. Backend test files call Run with a fresh store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) port.DocumentStore

// Run executes the contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertGet", func(t *testing.T) { testInsertGet(t, newStore(t)) })
	t.Run("Merge", func(t *testing.T) { testMerge(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("QueryOrderAndCursor", func(t *testing.T) { testQuery(t, newStore(t)) })
	t.Run("CommitAtomic", func(t *testing.T) { testCommit(t, newStore(t)) })
	t.Run("Watch", func(t *testing.T) { testWatch(t, newStore(t)) })
}

func doc(id string, fields map[string]any) port.Document {
	d := port.Document{"id": id, "version": 1}
	for k, v := range fields {
		d[k] = v
	}
	return d
}

func testInsertGet(t *testing.T, s port.DocumentStore) {
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "orders", "o1", doc("o1", map[string]any{"status": "pending", "total": 12.5})))
	err := s.Insert(ctx, "orders", "o1", doc("o1", nil))
	assert.ErrorIs(t, err, port.ErrDuplicate)

	got, err := s.Get(ctx, "orders", "o1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "o1", got["id"])
	assert.Equal(t, "pending", got["status"])
	assert.EqualValues(t, 12.5, got["total"])

	missing, err := s.Get(ctx, "orders", "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testMerge(t *testing.T, s port.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "users", "u1", doc("u1", map[string]any{"email": "a@x.com", "loyaltyPoints": 10})))

	require.NoError(t, s.Merge(ctx, "users", "u1", port.Document{"loyaltyPoints": 20}, 0))
	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 20, got["loyaltyPoints"])
	assert.Equal(t, "a@x.com", got["email"])
	assert.EqualValues(t, 2, got["version"])

	err = s.Merge(ctx, "users", "u1", port.Document{"loyaltyPoints": 30}, 1)
	assert.ErrorIs(t, err, port.ErrConflict)

	require.NoError(t, s.Merge(ctx, "users", "u1", port.Document{"loyaltyPoints": 30}, 2))
	got, err = s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 30, got["loyaltyPoints"])
	assert.EqualValues(t, 3, got["version"])

	err = s.Merge(ctx, "users", "ghost", port.Document{"x": 1}, 0)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func testDelete(t *testing.T, s port.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "reviews", "r1", doc("r1", nil)))

	require.NoError(t, s.Delete(ctx, "reviews", "r1"))
	require.NoError(t, s.Delete(ctx, "reviews", "r1"))

	got, err := s.Get(ctx, "reviews", "r1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testQuery(t *testing.T, s port.DocumentStore) {
	ctx := context.Background()
	rows := []struct {
		id, status, created string
	}{
		{"a", "pending", "2024-01-01T00:00:00.000000000Z"},
		{"b", "paid", "2024-01-02T00:00:00.000000000Z"},
		{"c", "pending", "2024-01-03T00:00:00.000000000Z"},
		{"d", "pending", "2024-01-03T00:00:00.000000000Z"},
		{"e", "pending", "2024-01-05T00:00:00.000000000Z"},
	}
	for _, r := range rows {
		require.NoError(t, s.Insert(ctx, "orders", r.id, doc(r.id, map[string]any{"status": r.status, "createdAt": r.created})))
	}

	where := &port.Filter{Field: "status", Value: "pending"}
	n, err := s.Count(ctx, "orders", where)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	all, err := s.Count(ctx, "orders", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, all)

	q := port.Query{Where: where, OrderBy: &port.Order{Field: "createdAt", Desc: true}}
	snaps, err := s.Query(ctx, "orders", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "c", "d", "a"}, ids(snaps))

	q.Limit = 2
	first, err := s.Query(ctx, "orders", q)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "c"}, ids(first))

	q.StartAfter = &first[len(first)-1]
	next, err := s.Query(ctx, "orders", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, ids(next))

	empty, err := s.Query(ctx, "nothing", port.Query{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testCommit(t *testing.T, s port.DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "inventory", "i1", doc("i1", map[string]any{"totalStock": 5})))

	bad := []port.Mutation{
		{Kind: port.MutationCreate, Collection: "stockMovements", ID: "m1", Data: doc("m1", map[string]any{"quantity": -1})},
		{Kind: port.MutationUpdate, Collection: "inventory", ID: "i1", Data: port.Document{"totalStock": 4}},
		{Kind: port.MutationUpdate, Collection: "inventory", ID: "missing", Data: port.Document{"totalStock": 1}},
	}
	require.Error(t, s.Commit(ctx, bad))

	m, err := s.Get(ctx, "stockMovements", "m1")
	require.NoError(t, err)
	assert.Nil(t, m, "create from a failed batch must not be visible")
	inv, err := s.Get(ctx, "inventory", "i1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, inv["totalStock"])

	good := bad[:2]
	require.NoError(t, s.Commit(ctx, good))
	inv, err = s.Get(ctx, "inventory", "i1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, inv["totalStock"])
	m, err = s.Get(ctx, "stockMovements", "m1")
	require.NoError(t, err)
	assert.NotNil(t, m)

	stale := []port.Mutation{
		{Kind: port.MutationUpdate, Collection: "inventory", ID: "i1", Data: port.Document{"totalStock": 0}, ExpectVersion: 1},
		{Kind: port.MutationDelete, Collection: "stockMovements", ID: "m1"},
	}
	assert.ErrorIs(t, s.Commit(ctx, stale), port.ErrConflict)
	m, err = s.Get(ctx, "stockMovements", "m1")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func testWatch(t *testing.T, s port.DocumentStore) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var last []port.Snapshot
	deliveries := 0
	stop, err := s.Watch(ctx, "stockAlerts", port.Query{Where: &port.Filter{Field: "read", Value: false}}, func(snaps []port.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		last = snaps
		deliveries++
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return deliveries >= 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Insert(ctx, "stockAlerts", "al1", doc("al1", map[string]any{"read": false})))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(last) == 1 && last[0].ID == "al1"
	}, 5*time.Second, 10*time.Millisecond)

	stop()
	stop()
}

func ids(snaps []port.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.ID
	}
	return out
}

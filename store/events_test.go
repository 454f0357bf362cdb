package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklake/chunklake/store"
)

func TestEventIDsAreStrictlyMonotonicWithinAStore(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	desc := posDesc("Position3D")

	first, err := s.InsertChunk(temporalChunk("/a", desc, 1))
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := s.InsertChunk(temporalChunk("/b", desc, 1))
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Less(t, first[0].EventID, second[0].EventID)
}

func TestGenerationAdvancesOnInsertAndDrop(t *testing.T) {
	s := store.New("s1", store.DefaultConfig())
	desc := posDesc("Position3D")

	g0 := s.Generation()
	_, err := s.InsertChunk(temporalChunk("/points", desc, 1))
	require.NoError(t, err)
	g1 := s.Generation()
	assert.Greater(t, g1.InsertID, g0.InsertID)
	assert.Equal(t, g0.GCID, g1.GCID)

	s.DropEntityPath("/points")
	g2 := s.Generation()
	assert.Greater(t, g2.GCID, g1.GCID)
	assert.Equal(t, g1.InsertID, g2.InsertID)
}

type orderRecordingSubscriber struct {
	name    string
	order   *[]string
}

func (o *orderRecordingSubscriber) OnEvents(events []store.Event) {
	*o.order = append(*o.order, o.name)
}

func TestTwoSubscribersAreDeliveredInRegistrationOrder(t *testing.T) {
	var order []string
	store.Subscribe(&orderRecordingSubscriber{name: "first", order: &order})
	store.Subscribe(&orderRecordingSubscriber{name: "second", order: &order})

	s := store.New("order-test", store.DefaultConfig())
	_, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(order), 2)
	// Other tests' subscribers share the process-wide registry but do not
	// write to order; the two registered here must have fired in
	// registration order.
	var firstIdx, secondIdx = -1, -1
	for i, name := range order {
		if name == "first" && firstIdx == -1 {
			firstIdx = i
		}
		if name == "second" && secondIdx == -1 {
			secondIdx = i
		}
	}
	require.NotEqual(t, -1, firstIdx)
	require.NotEqual(t, -1, secondIdx)
	assert.Less(t, firstIdx, secondIdx)
}

func TestEventsCarryStoreIDAndGeneration(t *testing.T) {
	s := store.New("events-store-id", store.DefaultConfig())
	events, err := s.InsertChunk(temporalChunk("/points", posDesc("Position3D"), 1))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, store.StoreId("events-store-id"), events[0].StoreID)
	assert.Equal(t, uint64(1), events[0].Generation.InsertID)
}

package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mongostore "shopfront/internal/adapter/mongo"
	"shopfront/internal/cart"
	"shopfront/internal/config"
)

func TestDocID(t *testing.T) {
	assert.Equal(t, "sid-1:cart", mongostore.DocID("sid-1", "cart"))
}

// Needs a reachable server: MONGO_TEST_URI=mongodb://localhost:27017 go test ./...
func TestStorage_RoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()

	client, err := mongostore.NewConnection(ctx, config.MongoConfig{URI: uri, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database("shopfront_test").Collection("carts_" + uuid.NewString()[:8])
	defer func() { _ = coll.Drop(ctx) }()

	st := mongostore.NewStorage(coll)
	require.NoError(t, st.EnsureIndexes(ctx, time.Hour))

	_, ok, err := st.Get(ctx, "sid-1", "cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, "sid-1", "cart", `{"version":1,"items":[]}`))
	require.NoError(t, st.Set(ctx, "sid-1", "cart", "second"))
	require.NoError(t, st.Set(ctx, "sid-1", "prefs", "x"))
	require.NoError(t, st.Set(ctx, "sid-2", "cart", "other"))

	v, ok, err := st.Get(ctx, "sid-1", "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v)

	require.NoError(t, st.Remove(ctx, "sid-1", "prefs"))
	_, ok, _ = st.Get(ctx, "sid-1", "prefs")
	assert.False(t, ok)

	require.NoError(t, st.DropScope(ctx, "sid-1"))
	_, ok, _ = st.Get(ctx, "sid-1", "cart")
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, "sid-2", "cart")
	assert.True(t, ok, "other scopes survive")

	// Backs a cart store end to end.
	s := cart.Open(ctx, st.Scope("sid-3"))
	require.NoError(t, s.AddItem(ctx, cart.Product{ProductID: "p-1", Name: "Lamp", UnitPrice: 10}, 2))
	s.Close()
	reopened := cart.Open(ctx, st.Scope("sid-3"))
	defer reopened.Close()
	assert.Equal(t, 2, reopened.ItemCount())
}

package cart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/cart"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	in := []cart.LineItem{
		{ProductID: "P1", Name: "Widget", UnitPrice: 100, Quantity: 2},
		{ProductID: "P2", Name: "Gadget", ImageURL: "/img/p2.jpg", UnitPrice: 49.95, Quantity: 3, AvailableStock: cart.Stock(3)},
	}
	data, err := cart.EncodeSnapshot(in)
	require.NoError(t, err)

	out, err := cart.DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSnapshot_EmptyCartEncodesItemsArray(t *testing.T) {
	data, err := cart.EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[]}`, string(data))
}

func TestSnapshot_Tolerance(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []cart.LineItem
	}{
		{
			name: "unknown fields ignored",
			raw:  `{"version":1,"savedBy":"tab-3","items":[{"productId":"a","quantity":1,"unitPrice":2,"color":"red"}]}`,
			want: []cart.LineItem{{ProductID: "a", Quantity: 1, UnitPrice: 2}},
		},
		{
			name: "legacy bare array",
			raw:  `[{"productId":"a","name":"A","unitPrice":5,"quantity":2,"imageUrl":"a.jpg","availableStock":4}]`,
			want: []cart.LineItem{{ProductID: "a", Name: "A", UnitPrice: 5, Quantity: 2, ImageURL: "a.jpg", AvailableStock: cart.Stock(4)}},
		},
		{
			name: "null items",
			raw:  `{"version":1,"items":null}`,
			want: []cart.LineItem{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cart.DecodeSnapshot([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshot_Rejects(t *testing.T) {
	for name, raw := range map[string]string{
		"truncated":       "{not json",
		"wrong version":   `{"version":2,"items":[]}`,
		"missing version": `{"items":[]}`,
		"scalar":          `42`,
		"blank":           "   ",
		"missing id":      `{"version":1,"items":[{"quantity":1}]}`,
		"zero quantity":   `{"version":1,"items":[{"productId":"a","quantity":0}]}`,
		"negative price":  `{"version":1,"items":[{"productId":"a","quantity":1,"unitPrice":-1}]}`,
		"duplicate ids":   `{"version":1,"items":[{"productId":"a","quantity":1},{"productId":"a","quantity":2}]}`,
		"wrong type":      `{"version":1,"items":[{"productId":"a","quantity":"two"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := cart.DecodeSnapshot([]byte(raw))
			assert.ErrorIs(t, err, cart.ErrBadSnapshot)
		})
	}
}

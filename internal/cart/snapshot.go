package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// SnapshotVersion is written into every persisted snapshot.
const SnapshotVersion = 1

// ErrBadSnapshot marks a persisted value that does not describe a valid cart.
var ErrBadSnapshot = errors.New("cart: invalid snapshot")

type snapshot struct {
	Version int            `json:"version"`
	Items   []snapshotItem `json:"items"`
}

type snapshotItem struct {
	ProductID      string   `json:"productId"`
	Name           string   `json:"name"`
	UnitPrice      float64  `json:"unitPrice"`
	Quantity       int      `json:"quantity"`
	ImageURL       string   `json:"imageUrl"`
	AvailableStock *float64 `json:"availableStock,omitempty"`
}

// EncodeSnapshot serializes items into the versioned snapshot envelope.
func EncodeSnapshot(items []LineItem) ([]byte, error) {
	env := snapshot{Version: SnapshotVersion, Items: make([]snapshotItem, 0, len(items))}
	for _, it := range items {
		si := snapshotItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		}
		if it.AvailableStock != nil {
			v := float64(*it.AvailableStock)
			si.AvailableStock = &v
		}
		env.Items = append(env.Items, si)
	}
	return json.Marshal(env)
}

// DecodeSnapshot parses a persisted snapshot. Both the versioned envelope and
// a bare JSON array of items are accepted. Unknown fields are ignored; any
// structural problem yields ErrBadSnapshot.
func DecodeSnapshot(data []byte) ([]LineItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrBadSnapshot)
	}

	var raw []snapshotItem
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
	case '{':
		var env snapshot
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		if env.Version != SnapshotVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, env.Version)
		}
		raw = env.Items
	default:
		return nil, fmt.Errorf("%w: unexpected value", ErrBadSnapshot)
	}

	items := make([]LineItem, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, si := range raw {
		if si.ProductID == "" {
			return nil, fmt.Errorf("%w: item %d has no productId", ErrBadSnapshot, i)
		}
		if _, dup := seen[si.ProductID]; dup {
			return nil, fmt.Errorf("%w: duplicate productId %q", ErrBadSnapshot, si.ProductID)
		}
		if si.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %q has quantity %d", ErrBadSnapshot, si.ProductID, si.Quantity)
		}
		if math.IsNaN(si.UnitPrice) || math.IsInf(si.UnitPrice, 0) || si.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item %q has price %v", ErrBadSnapshot, si.ProductID, si.UnitPrice)
		}
		seen[si.ProductID] = struct{}{}

		it := LineItem{
			ProductID: si.ProductID,
			Name:      si.Name,
			ImageURL:  si.ImageURL,
			UnitPrice: si.UnitPrice,
			Quantity:  si.Quantity,
		}
		if si.AvailableStock != nil {
			it.AvailableStock = Stock(int(math.Floor(*si.AvailableStock)))
		}
		items = append(items, it)
	}
	return items, nil
}

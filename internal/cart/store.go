package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultKey is the storage key the snapshot lives under.
const DefaultKey = "cart"

const reloadTimeout = 5 * time.Second

// ErrPersist is wrapped by every error a mutating operation returns. The
// in-memory mutation has already been applied when it is reported.
var ErrPersist = errors.New("cart: snapshot not persisted")

// Store owns the line items of one cart and keeps them in sync with a
// Storage. Mutations are applied one at a time.
type Store struct {
	mu      sync.Mutex
	items   []LineItem
	storage Storage
	key     string

	feed   Feed
	topic  string
	origin string
	unsub  func()

	seq uint64 // guarded by mu; bumped on every state change

	obsMu     sync.Mutex
	observers map[int]func(View)
	nextObs   int

	deliverMu sync.Mutex
	delivered uint64 // guarded by deliverMu

	closeOnce sync.Once
	done      chan struct{}

	log *zap.Logger
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithFeed makes the store publish on topic after each write and adopt
// snapshots written by other stores on the same topic.
func WithFeed(f Feed, topic string) Option {
	return func(s *Store) {
		s.feed = f
		s.topic = topic
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open restores a store from storage. A missing, unreadable or malformed
// snapshot yields an empty cart.
func Open(ctx context.Context, storage Storage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		storage:   storage,
		key:       DefaultKey,
		origin:    uuid.NewString(),
		observers: map[int]func(View){},
		done:      make(chan struct{}),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := s.load(ctx)
	if err != nil {
		s.log.Warn("cart snapshot read failed", zap.String("key", s.key), zap.Error(err))
	}
	s.items = items

	if s.feed != nil {
		cancel, err := s.feed.Subscribe(s.topic, s.onNotice)
		if err != nil {
			s.log.Warn("cart feed subscribe failed", zap.String("topic", s.topic), zap.Error(err))
		} else {
			s.unsub = cancel
		}
	}
	return s
}

// load returns the stored items. Only a storage failure is returned as an
// error; absent and malformed snapshots both come back as an empty cart.
func (s *Store) load(ctx context.Context) ([]LineItem, error) {
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	items, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		s.log.Warn("discarding cart snapshot", zap.String("key", s.key), zap.Error(err))
		return nil, nil
	}
	return items, nil
}

// AddItem adds qty units of p, merging with an existing line for the same
// product. qty below 1 counts as 1. The resulting quantity is clamped to the
// known stock bound.
func (s *Store) AddItem(ctx context.Context, p Product, qty int) error {
	_, err := s.AddItemQty(ctx, p, qty)
	return err
}

// AddItemQty is AddItem that also reports the quantity the line holds
// afterwards.
func (s *Store) AddItemQty(ctx context.Context, p Product, qty int) (int, error) {
	if p.ProductID == "" {
		s.log.Debug("ignoring product without id", zap.String("name", p.Name))
		return 0, nil
	}
	if qty < 1 {
		qty = 1
	}
	var stored int
	err := s.mutate(ctx, func() bool {
		if i := s.indexOf(p.ProductID); i >= 0 {
			it := &s.items[i]
			if p.AvailableStock != nil {
				it.AvailableStock = Stock(*p.AvailableStock)
			}
			it.Quantity = clampQty(it.Quantity+qty, it.AvailableStock)
			stored = it.Quantity
			return true
		}
		it := LineItem{
			ProductID: p.ProductID,
			Name:      p.Name,
			ImageURL:  p.ImageURL,
			UnitPrice: sanitizePrice(p.UnitPrice),
		}
		if p.AvailableStock != nil {
			it.AvailableStock = Stock(*p.AvailableStock)
		}
		it.Quantity = clampQty(qty, it.AvailableStock)
		s.items = append(s.items, it)
		stored = it.Quantity
		return true
	})
	return stored, err
}

// RemoveItem drops the line for productID. Absent ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	return s.mutate(ctx, func() bool {
		return s.removeLocked(productID)
	})
}

// SetQuantity replaces the quantity of an existing line. qty <= 0 removes the
// line; absent ids are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) error {
	return s.mutate(ctx, func() bool {
		if qty <= 0 {
			return s.removeLocked(productID)
		}
		i := s.indexOf(productID)
		if i < 0 {
			return false
		}
		next := clampQty(qty, s.items[i].AvailableStock)
		if next == s.items[i].Quantity {
			return false
		}
		s.items[i].Quantity = next
		return true
	})
}

// Deduct lowers each held line by the quantity given for it in lines and
// drops lines that reach zero. Lines added since lines was read are kept.
func (s *Store) Deduct(ctx context.Context, lines []LineItem) error {
	return s.mutate(ctx, func() bool {
		changed := false
		for _, l := range lines {
			i := s.indexOf(l.ProductID)
			if i < 0 || l.Quantity <= 0 {
				continue
			}
			changed = true
			if s.items[i].Quantity <= l.Quantity {
				s.items = append(s.items[:i], s.items[i+1:]...)
				continue
			}
			s.items[i].Quantity -= l.Quantity
		}
		return changed
	})
}

// Clear empties the cart. The empty snapshot is always written.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func() bool {
		s.items = nil
		return true
	})
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe registers fn to receive a fresh View after every change. fn runs
// on the goroutine that made the change, before that call returns.
// Deliveries never overlap, and a view older than one already delivered is
// skipped, so the last view an observer sees is the current state. fn must
// not mutate the store.
func (s *Store) Subscribe(fn func(View)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// Reload re-reads the snapshot and adopts it. On a storage failure the
// current state is kept and the error returned.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("reload cart: %w", err)
	}
	s.items = items
	view, seq := s.stampLocked()
	s.mu.Unlock()

	s.notify(view, seq)
	return nil
}

// Close detaches the store from its feed, drops all observers and closes
// Done. It is safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsub != nil {
			s.unsub()
		}
		s.obsMu.Lock()
		s.observers = map[int]func(View){}
		s.obsMu.Unlock()
		close(s.done)
	})
}

// Done is closed once the store is closed. Holders of a long-lived
// reference drop it then and reopen the cart.
func (s *Store) Done() <-chan struct{} { return s.done }

func (s *Store) mutate(ctx context.Context, fn func() bool) error {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return nil
	}
	view, seq := s.stampLocked()
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(view, seq)
	if err == nil {
		s.publish(ctx)
	}
	return err
}

func (s *Store) stampLocked() (View, uint64) {
	s.seq++
	return s.viewLocked(), s.seq
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := EncodeSnapshot(s.items)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		s.log.Warn("cart snapshot write failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Store) publish(ctx context.Context) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, s.topic, s.origin); err != nil {
		s.log.Warn("cart change notice not published", zap.String("topic", s.topic), zap.Error(err))
	}
}

func (s *Store) onNotice(origin string) {
	if origin == s.origin {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	if err := s.Reload(ctx); err != nil {
		s.log.Warn("cart external change not adopted", zap.String("topic", s.topic), zap.Error(err))
	}
}

func (s *Store) notify(v View, seq uint64) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq

	s.obsMu.Lock()
	fns := make([]func(View), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(View{Items: cloneItems(v.Items), Count: v.Count, Subtotal: v.Subtotal})
	}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(productID string) bool {
	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *Store) countLocked() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) subtotalLocked() float64 {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.InexactFloat64()
}

func (s *Store) viewLocked() View {
	return View{Items: cloneItems(s.items), Count: s.countLocked(), Subtotal: s.subtotalLocked()}
}

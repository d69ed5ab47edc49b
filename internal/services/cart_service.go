package services

import (
	"context"
	"sync"

	"shopfront/internal/cart"
	"shopfront/internal/domain"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// ProductSource resolves a product id to its current catalogue entry.
type ProductSource interface {
	Get(ctx context.Context, token, id string) (domain.Product, error)
}

type CartOptions struct {
	Key    string // storage key inside each session scope
	Size   int    // open stores kept in memory
	Feed   cart.Feed
	Logger *zap.Logger
}

// CartService hands out the one cart.Store of each browser session.
// Stores are opened lazily over the session's storage scope and kept in a
// bounded LRU; an evicted store is closed and reopened from storage on the
// next request.
type CartService struct {
	Prods ProductSource

	scope func(sid string) cart.Storage
	key   string
	feed  cart.Feed
	log   *zap.Logger

	mu     sync.Mutex
	stores *lru.Cache
}

func NewCartService(prods ProductSource, scope func(sid string) cart.Storage, opts CartOptions) (*CartService, error) {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if scope == nil {
		mem := map[string]cart.Storage{}
		var memMu sync.Mutex
		scope = func(sid string) cart.Storage {
			memMu.Lock()
			defer memMu.Unlock()
			if mem[sid] == nil {
				mem[sid] = cart.NewMemoryStorage()
			}
			return mem[sid]
		}
	}
	s := &CartService{
		Prods: prods,
		scope: scope,
		key:   opts.Key,
		feed:  opts.Feed,
		log:   opts.Logger,
	}
	cache, err := lru.NewWithEvict(opts.Size, func(key, value interface{}) {
		value.(*cart.Store).Close()
		s.log.Debug("cart store evicted", zap.Any("sid", key))
	})
	if err != nil {
		return nil, err
	}
	s.stores = cache
	return s, nil
}

// Store returns the session's cart, opening it from storage if needed.
func (s *CartService) Store(ctx context.Context, sid string) *cart.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.stores.Get(sid); ok {
		return v.(*cart.Store)
	}
	opts := []cart.Option{
		cart.WithKey(s.key),
		cart.WithLogger(s.log.With(zap.String("sid", sid))),
	}
	if s.feed != nil {
		opts = append(opts, cart.WithFeed(s.feed, sid))
	}
	st := cart.Open(ctx, s.scope(sid), opts...)
	s.stores.Add(sid, st)
	return st
}

// AddProduct looks the product up and adds qty units of it to the
// session's cart. The stock bound is taken from the catalogue when the
// catalogue reports one. The int result is the quantity the cart now holds
// for the product.
func (s *CartService) AddProduct(ctx context.Context, sid, productID string, qty int) (domain.Product, int, error) {
	p, err := s.Prods.Get(ctx, "", productID)
	if err != nil {
		return domain.Product{}, 0, err
	}
	if !p.InStock() {
		return p, 0, ErrOutOfStock
	}
	held, err := s.Store(ctx, sid).AddItemQty(ctx, ToCartProduct(p), qty)
	return p, held, err
}

// Forget empties the session's cart and drops it from memory.
func (s *CartService) Forget(ctx context.Context, sid string) error {
	err := s.Store(ctx, sid).Clear(ctx)
	s.mu.Lock()
	s.stores.Remove(sid)
	s.mu.Unlock()
	return err
}

// Open reports how many stores are held in memory.
func (s *CartService) Open() int { return s.stores.Len() }

// Close closes every open store.
func (s *CartService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores.Purge()
}

func ToCartProduct(p domain.Product) cart.Product {
	cp := cart.Product{
		ProductID: p.ID,
		Name:      p.Name,
		ImageURL:  p.Image,
		UnitPrice: p.Price,
	}
	if p.Stock != nil {
		cp.AvailableStock = cart.Stock(*p.Stock)
	}
	return cp
}

package cart

import (
	"context"
	"sync"
)

// Feed carries "snapshot changed" notices between stores that share a
// topic. origin identifies the publishing store so it can skip its own echo.
type Feed interface {
	Publish(ctx context.Context, topic, origin string) error
	Subscribe(topic string, fn func(origin string)) (cancel func(), err error)
}

// LocalFeed is an in-process Feed. Subscribers run synchronously inside
// Publish.
type LocalFeed struct {
	mu   sync.Mutex
	subs map[string]map[int]func(string)
	next int
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: map[string]map[int]func(string){}}
}

func (f *LocalFeed) Publish(_ context.Context, topic, origin string) error {
	f.mu.Lock()
	fns := make([]func(string), 0, len(f.subs[topic]))
	for _, fn := range f.subs[topic] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(origin)
	}
	return nil
}

func (f *LocalFeed) Subscribe(topic string, fn func(string)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	if f.subs[topic] == nil {
		f.subs[topic] = map[int]func(string){}
	}
	f.subs[topic][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[topic], id)
			if len(f.subs[topic]) == 0 {
				delete(f.subs, topic)
			}
		})
	}, nil
}

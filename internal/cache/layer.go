package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Key names one cached entity: a kind ("segment-comments") and an id.
type Key struct {
	Kind string
	ID   string
}

func (k Key) String() string {
	return k.Kind + ":" + k.ID
}

// Loader resolves the fresh value for id.
type Loader func(ctx context.Context, id string) (interface{}, error)

// Observer receives hit/miss notifications; *metrics.Metrics satisfies it.
type Observer interface {
	ObserveCache(kind string, hit bool)
}

// Layer is a read-through cache with one loader per kind. Mutations report
// the keys they affected and the layer re-resolves them, so callers never
// refetch by hand after a write.
type Layer struct {
	store    Store
	ttl      time.Duration
	logger   *logrus.Logger
	observer Observer

	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewLayer returns a layer over store with entries living for ttl.
func NewLayer(store Store, ttl time.Duration, logger *logrus.Logger, observer Observer) *Layer {
	return &Layer{
		store:    store,
		ttl:      ttl,
		logger:   logger,
		observer: observer,
		loaders:  make(map[string]Loader),
	}
}

// Register installs the loader for kind.
func (l *Layer) Register(kind string, load Loader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaders[kind] = load
}

func (l *Layer) loader(kind string) (Loader, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	load, ok := l.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("cache: no loader registered for %q", kind)
	}
	return load, nil
}

// Get returns the cached JSON for key, loading it on a miss.
func (l *Layer) Get(ctx context.Context, key Key) ([]byte, error) {
	b, err := l.store.Get(ctx, key.String())
	if err == nil {
		l.observe(key.Kind, true)
		return b, nil
	}
	if !errors.Is(err, ErrMiss) {
		// a broken cache must not break reads
		l.logger.WithError(err).WithField("key", key.String()).Warn("Cache read failed, loading from source")
	}
	l.observe(key.Kind, false)
	return l.resolve(ctx, key)
}

// Invalidate re-resolves every affected key. A key whose loader fails is
// dropped so the next read retries the source.
func (l *Layer) Invalidate(ctx context.Context, keys ...Key) error {
	var errs []error
	for _, key := range keys {
		if _, err := l.resolve(ctx, key); err != nil {
			if delErr := l.store.Delete(ctx, key.String()); delErr != nil {
				errs = append(errs, delErr)
			}
			errs = append(errs, fmt.Errorf("cache: re-resolve %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (l *Layer) resolve(ctx context.Context, key Key) ([]byte, error) {
	load, err := l.loader(key.Kind)
	if err != nil {
		return nil, err
	}
	v, err := load(ctx, key.ID)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := l.store.Set(ctx, key.String(), b, l.ttl); err != nil {
		l.logger.WithError(err).WithField("key", key.String()).Warn("Cache write failed")
	}
	return b, nil
}

func (l *Layer) observe(kind string, hit bool) {
	if l.observer != nil {
		l.observer.ObserveCache(kind, hit)
	}
}

// Fetch is the typed form of Layer.Get.
func Fetch[T any](ctx context.Context, l *Layer, key Key) (T, error) {
	var out T
	b, err := l.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return out, nil
}

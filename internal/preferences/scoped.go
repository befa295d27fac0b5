package preferences

import (
	"context"
)

// Store is a string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// Scoped prefixes every key with a device namespace, so one backing store can
// hold the preferences of several devices. The namespace is per device rather
// than per user: an intent deferred as a guest must survive sign-in.
type Scoped struct {
	store     Store
	namespace string
}

// DefaultDevice is the namespace used when a caller names no device.
const DefaultDevice = "default"

// Scope returns store restricted to namespace.
func Scope(store Store, namespace string) *Scoped {
	if namespace == "" {
		namespace = DefaultDevice
	}
	return &Scoped{store: store, namespace: namespace}
}

func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.namespace+"/"+key)
}

func (s *Scoped) Put(ctx context.Context, key, value string) error {
	return s.store.Put(ctx, s.namespace+"/"+key, value)
}

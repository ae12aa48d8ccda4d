package store

import "context"

// NopPersister never saves and always loads an empty store. Used for dry
// runs.
type NopPersister struct{}

func NewNopPersister() *NopPersister { return &NopPersister{} }

func (NopPersister) Load(context.Context) (*Store, error) { return New(), nil }
func (NopPersister) Save(context.Context, *Store) error   { return nil }
func (NopPersister) Close() error                         { return nil }

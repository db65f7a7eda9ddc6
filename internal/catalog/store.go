package catalog

import "sync/atomic"

// Store publishes the current catalog. Readers always see a complete
// catalog; a reload swaps the whole value at once.
type Store struct {
	current atomic.Pointer[Catalog]
}

func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

func (s *Store) Load() *Catalog {
	return s.current.Load()
}

// Replace installs c and returns the catalog it replaced.
func (s *Store) Replace(c *Catalog) *Catalog {
	return s.current.Swap(c)
}

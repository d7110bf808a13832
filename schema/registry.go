package schema

import "sync"

// Registry caches one DatabaseSchema per connection key so metadata is read
// once per database rather than once per handle.
type Registry struct {
	schemas sync.Map // string -> *DatabaseSchema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Get returns the schema cached under key, calling build on a miss. When
// two callers race the first stored schema wins.
func (r *Registry) Get(key string, build func() *DatabaseSchema) *DatabaseSchema {
	if s, ok := r.schemas.Load(key); ok {
		return s.(*DatabaseSchema)
	}
	s, _ := r.schemas.LoadOrStore(key, build())
	return s.(*DatabaseSchema)
}

// Remove drops the schema cached under key.
func (r *Registry) Remove(key string) {
	r.schemas.Delete(key)
}

// Clear drops every cached schema.
func (r *Registry) Clear() {
	r.schemas.Range(func(k, _ any) bool {
		r.schemas.Delete(k)
		return true
	})
}

// Len returns the number of cached schemas.
func (r *Registry) Len() int {
	n := 0
	r.schemas.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

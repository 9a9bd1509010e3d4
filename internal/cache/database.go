package cache

import "sync"

// Database is a keyed in-memory store for one kind of mirrored record.
// Records are replaced wholesale on update, never patched. A single lock
// per database makes each mutation atomic; there is deliberately no
// transactional guarantee across databases, so readers may observe, say, a
// portal before its environments have been mirrored.
//
// Writers are the reconciliation watchers only. Request handlers are
// read-only consumers.
type Database[T any] struct {
	mutex   sync.RWMutex
	key     func(T) string
	records map[string]T
}

// NewDatabase returns an empty database using the given key function.
func NewDatabase[T any](key func(T) string) *Database[T] {
	return &Database[T]{
		key:     key,
		records: make(map[string]T),
	}
}

// Update inserts the record, replacing any existing record with the same
// key.
func (d *Database[T]) Update(record T) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.records[d.key(record)] = record
}

// Remove deletes the record with the given key. Removing an absent key is
// not an error.
func (d *Database[T]) Remove(key string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.records, key)
}

// Get returns the record with the given key, or false when absent.
func (d *Database[T]) Get(key string) (T, bool) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	record, ok := d.records[key]
	return record, ok
}

// All returns the current records in unspecified order.
func (d *Database[T]) All() []T {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	records := make([]T, 0, len(d.records))
	for _, record := range d.records {
		records = append(records, record)
	}
	return records
}

// Len returns the number of records currently held.
func (d *Database[T]) Len() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.records)
}

package mokmanager

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var variablesBucket = []byte("variables")

// BoltVariableStore is the concrete, durable VariableStore backend used by
// cmd/mokmanager: a single bbolt bucket keyed by variable name, giving the
// append/clear/delete contract a real on-disk implementation without
// pulling in a firmware SDK. bbolt distinguishes an absent key from a
// present-but-empty one (Get returns nil only when the key does not
// exist), which is exactly the distinction Append's "clear" semantics
// depend on.
type BoltVariableStore struct {
	db *bolt.DB
}

// OpenBoltVariableStore opens or creates a bbolt database at path and
// ensures the variables bucket exists.
func OpenBoltVariableStore(path string) (*BoltVariableStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open variable store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(variablesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init variable store: %w", err)
	}
	return &BoltVariableStore{db: db}, nil
}

// Close releases the underlying database handle.
func (b *BoltVariableStore) Close() error {
	return b.db.Close()
}

// Get implements VariableStore.
func (b *BoltVariableStore) Get(name string) ([]byte, bool, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(variablesBucket).Get([]byte(name))
		if v == nil {
			return nil
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", name, err)
	}
	// data is non-nil (even if zero-length) iff the key was present,
	// since the View closure above only allocates it when v != nil.
	return data, data != nil, nil
}

// Append implements VariableStore: writing zero-length data clears the
// variable to an empty (but present) value, otherwise data is concatenated
// onto whatever is already stored.
func (b *BoltVariableStore) Append(name string, data []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(variablesBucket)
		if len(data) == 0 {
			return bucket.Put([]byte(name), []byte{})
		}
		existing := bucket.Get([]byte(name))
		next := make([]byte, 0, len(existing)+len(data))
		next = append(next, existing...)
		next = append(next, data...)
		return bucket.Put([]byte(name), next)
	})
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

// Delete implements VariableStore.
func (b *BoltVariableStore) Delete(name string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(variablesBucket).Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

package syncset

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUninitialized is returned when decoding into a Set that was not created by
// a constructor.
var ErrUninitialized = errors.New("syncset: unmarshal into a Set that was not created by a constructor")

// MarshalJSON encodes the keys of s as a JSON array in ascending order.
func (s *Set[K]) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.keys.Keys())
}

// UnmarshalJSON replaces the contents of s with the keys of a JSON array,
// keeping the ordering of s. Duplicate keys collapse into one. On error s is
// left unchanged.
func (s *Set[K]) UnmarshalJSON(data []byte) error {
	var keys []K
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("syncset: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		return ErrUninitialized
	}
	s.keys.Reset(keys...)
	return nil
}

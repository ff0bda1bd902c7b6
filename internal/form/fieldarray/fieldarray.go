// Package fieldarray keeps an ordered list that lives inside a larger form
// state and gives every item a render key independent of its position.
//
// Keys are what a client uses to keep per-item UI state (focus, pending
// input, error display) attached to the right logical item. Removing item i
// shifts later items down one position but never changes their keys.
package fieldarray

import (
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
)

var ErrIndexOutOfRange = errors.New("field array index out of range")

// KeyFunc returns a key that was never returned before in the session.
type KeyFunc func() string

func UUIDKeys() string { return uuid.NewString() }

type Field[T any] struct {
	Key   string
	Index int
	Value T
}

type FieldArray[T any] struct {
	items  *[]T
	keys   []string
	newKey KeyFunc
}

// New binds a controller to the slice behind items and keys whatever it
// already holds.
func New[T any](items *[]T, newKey KeyFunc) *FieldArray[T] {
	if newKey == nil {
		newKey = UUIDKeys
	}
	a := &FieldArray[T]{items: items, newKey: newKey}
	a.Reset()
	return a
}

// Reset re-keys every item. Call it after the bound slice was replaced as a
// whole; the old keys are not handed out again.
func (a *FieldArray[T]) Reset() {
	n := len(*a.items)
	a.keys = make([]string, n)
	for i := range a.keys {
		a.keys[i] = a.newKey()
	}
}

func (a *FieldArray[T]) Len() int { return len(*a.items) }

// Append adds v at the end and returns its key.
func (a *FieldArray[T]) Append(v T) string {
	a.sync()
	*a.items = append(*a.items, v)
	k := a.newKey()
	a.keys = append(a.keys, k)
	return k
}

func (a *FieldArray[T]) RemoveAt(i int) error {
	a.sync()
	n := len(*a.items)
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, n)
	}
	items := *a.items
	copy(items[i:], items[i+1:])
	var zero T
	items[n-1] = zero
	*a.items = items[:n-1]

	copy(a.keys[i:], a.keys[i+1:])
	a.keys = a.keys[:n-1]
	return nil
}

func (a *FieldArray[T]) KeyAt(i int) (string, error) {
	a.sync()
	if i < 0 || i >= len(a.keys) {
		return "", fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(a.keys))
	}
	return a.keys[i], nil
}

func (a *FieldArray[T]) Keys() []string {
	a.sync()
	return append([]string(nil), a.keys...)
}

// Fields yields (key, index, value) for the current state. The sequence can
// be ranged over any number of times; each pass reflects the list as it is
// at that moment.
func (a *FieldArray[T]) Fields() iter.Seq[Field[T]] {
	return func(yield func(Field[T]) bool) {
		a.sync()
		for i, v := range *a.items {
			if i >= len(a.keys) {
				return
			}
			if !yield(Field[T]{Key: a.keys[i], Index: i, Value: v}) {
				return
			}
		}
	}
}

// sync repairs keys when the bound slice was resized behind the
// controller's back: surplus keys are dropped, missing ones are minted.
func (a *FieldArray[T]) sync() {
	n := len(*a.items)
	if len(a.keys) > n {
		a.keys = a.keys[:n]
	}
	for len(a.keys) < n {
		a.keys = append(a.keys, a.newKey())
	}
}

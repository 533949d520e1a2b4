// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fixpoint computes sound fixpoints of abstract states over control-flow graphs:
// working sets, the ascending/descending iteration with widening and narrowing, and the
// optimized block-head variant.
package fixpoint

import (
	"errors"

	"github.com/argus-static/argus/analysis/config"
)

// ErrEmptyWorkingSet is returned by Pop and Peek on an empty working set.
var ErrEmptyWorkingSet = errors.New("working set is empty")

// WorkingSet is the pending set of elements scheduled for processing. Implementations
// are not safe for concurrent use; the driver owns the set.
type WorkingSet[T comparable] interface {
	// Push schedules an element. Duplicate-free variants ignore elements already
	// scheduled.
	Push(x T)

	// Pop removes and returns the next element, failing with ErrEmptyWorkingSet when
	// none is scheduled
	Pop() (T, error)

	// Peek returns the next element without removing it
	Peek() (T, error)

	// Len returns the number of scheduled elements
	Len() int
}

// NewWorkingSet builds the working set selected by the configuration kind.
func NewWorkingSet[T comparable](kind string) (WorkingSet[T], error) {
	switch kind {
	case config.WorkingSetFIFO:
		return &fifo[T]{}, nil
	case config.WorkingSetLIFO:
		return &lifo[T]{}, nil
	case config.WorkingSetDedupFIFO:
		return &dedup[T]{inner: &fifo[T]{}, queued: map[T]bool{}}, nil
	case config.WorkingSetDedupLIFO:
		return &dedup[T]{inner: &lifo[T]{}, queued: map[T]bool{}}, nil
	default:
		return nil, config.Setupf("unknown working-set kind %q", kind)
	}
}

// fifo processes elements in insertion order.
type fifo[T comparable] struct {
	items []T
}

func (f *fifo[T]) Push(x T) { f.items = append(f.items, x) }

func (f *fifo[T]) Pop() (T, error) {
	var zero T
	if len(f.items) == 0 {
		return zero, ErrEmptyWorkingSet
	}
	x := f.items[0]
	f.items = f.items[1:]
	return x, nil
}

func (f *fifo[T]) Peek() (T, error) {
	var zero T
	if len(f.items) == 0 {
		return zero, ErrEmptyWorkingSet
	}
	return f.items[0], nil
}

func (f *fifo[T]) Len() int { return len(f.items) }

// lifo processes the most recently inserted element first.
type lifo[T comparable] struct {
	items []T
}

func (l *lifo[T]) Push(x T) { l.items = append(l.items, x) }

func (l *lifo[T]) Pop() (T, error) {
	var zero T
	if len(l.items) == 0 {
		return zero, ErrEmptyWorkingSet
	}
	x := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	return x, nil
}

func (l *lifo[T]) Peek() (T, error) {
	var zero T
	if len(l.items) == 0 {
		return zero, ErrEmptyWorkingSet
	}
	return l.items[len(l.items)-1], nil
}

func (l *lifo[T]) Len() int { return len(l.items) }

// dedup rejects pushes of elements that are already scheduled.
type dedup[T comparable] struct {
	inner  WorkingSet[T]
	queued map[T]bool
}

func (d *dedup[T]) Push(x T) {
	if d.queued[x] {
		return
	}
	d.queued[x] = true
	d.inner.Push(x)
}

func (d *dedup[T]) Pop() (T, error) {
	x, err := d.inner.Pop()
	if err == nil {
		delete(d.queued, x)
	}
	return x, err
}

func (d *dedup[T]) Peek() (T, error) { return d.inner.Peek() }

func (d *dedup[T]) Len() int { return d.inner.Len() }

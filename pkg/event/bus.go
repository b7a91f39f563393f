// Copyright 2025 Open3FS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"fmt"

	"github.com/open3fs/m3disk/pkg/errors"
	"github.com/open3fs/m3disk/pkg/log"
	"github.com/open3fs/m3disk/pkg/syncutil"
)

// Handler handles one published value.
type Handler[T any] func(T) error

// SubscriberID identifies a subscription.
type SubscriberID uint64

// Fault records a handler that failed or panicked while handling a value.
type Fault struct {
	Subscriber string
	Err        error
}

func (f Fault) Error() string {
	return fmt.Sprintf("subscriber %s: %s", f.Subscriber, f.Err)
}

func (f Fault) Unwrap() error {
	return f.Err
}

type subscriber[T any] struct {
	id      SubscriberID
	name    string
	handler Handler[T]
}

// Bus delivers values to its subscribers synchronously, in subscription
// order. Handlers run without any bus lock held, so they may subscribe,
// unsubscribe or publish again.
type Bus[T any] struct {
	mu     syncutil.RWMutex
	nextID SubscriberID
	subs   []subscriber[T]
	logger log.Interface
}

// NewBus creates a bus.
func NewBus[T any](logger log.Interface) *Bus[T] {
	if logger == nil {
		logger = log.Logger
	}
	return &Bus[T]{
		logger: logger.Subscribe(log.FieldKeyComponent, "event-bus"),
	}
}

// Subscribe registers handler under name.
func (b *Bus[T]) Subscribe(name string, handler Handler[T]) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscriber[T]{
		id:      b.nextID,
		name:    name,
		handler: handler,
	})
	return b.nextID
}

// Unsubscribe removes a subscription, it reports whether id was found.
func (b *Bus[T]) Unsubscribe(id SubscriberID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers v to every subscriber registered at call time and returns
// the faults of the ones that failed. A failing handler never stops delivery
// to the following ones.
func (b *Bus[T]) Publish(v T) []Fault {
	b.mu.RLock()
	subs := make([]subscriber[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var faults []Fault
	for _, sub := range subs {
		if err := deliver(sub.handler, v); err != nil {
			b.logger.Errorf("Subscriber %s failed: %v", sub.name, err)
			faults = append(faults, Fault{Subscriber: sub.name, Err: err})
		}
	}
	return faults
}

func deliver[T any](handler Handler[T], v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return handler(v)
}

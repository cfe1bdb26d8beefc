// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package monitoring contains expvar published counters of plugins and host.
package monitoring

import (
	"expvar"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// Counter is expvar.Var, that can be safely incremented concurrently.
type Counter struct {
	val atomic.Int64
}

var _ expvar.Var = (*Counter)(nil)

func (c *Counter) Inc()            { c.val.Inc() }
func (c *Counter) Add(delta int64) { c.val.Add(delta) }
func (c *Counter) Get() int64      { return c.val.Load() }

func (c *Counter) String() string {
	return strconv.FormatInt(c.Get(), 10)
}

// NewCounter creates and publishes counter. Panics if name is already published.
func NewCounter(name string) *Counter {
	c := &Counter{}
	expvar.Publish(name, c)
	return c
}

var sharedMu sync.Mutex

// SharedCounter returns counter published under name, publishing new one if
// there is no such. Plugins of the same type created many times share counters.
// Panics if name is published, but is not *Counter.
func SharedCounter(name string) *Counter {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if v := expvar.Get(name); v != nil {
		return v.(*Counter)
	}
	return NewCounter(name)
}

// CounterValue is a snapshot of published counter.
type CounterValue struct {
	Name  string
	Value int64
}

// Counters returns snapshot of published counters with names starting with
// prefix, sorted by name. Published vars of other types are skipped.
func Counters(prefix string) []CounterValue {
	var out []CounterValue
	expvar.Do(func(kv expvar.KeyValue) {
		c, ok := kv.Value.(*Counter)
		if !ok || !strings.HasPrefix(kv.Key, prefix) {
			return
		}
		out = append(out, CounterValue{kv.Key, c.Get()})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

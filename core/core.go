// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package core defines hvdf ingestion extension points.
// Core interfaces implementations can be constructed manually and used as a library,
// or can be registered in hvdf plugin system (look at core/plugin pkg), for creating
// ingestion pipeline parts from abstract config.
package core

import (
	"context"
	"reflect"
	"time"

	"github.com/yandex/hvdf/core/config"
)

// Sample is one time-series data point pushed into channel.
type Sample struct {
	// Source identifies sample producer: host, sensor, device etc.
	Source interface{}
	// Timestamp is sample time. Collection slicing is done by it.
	Timestamp time.Time
	// Data is sample payload.
	Data config.Document
}

// IDFactory generates storage identifiers for samples.
// An IDFactory must be goroutine safe.
type IDFactory interface {
	NewID(s Sample) interface{}
}

// Allocator maps sample time to storage collection name. Collections
// are time slices of channel data.
// An Allocator must be goroutine safe.
type Allocator interface {
	// Collection returns name of collection containing samples at ts.
	Collection(ts time.Time) string
	// Period returns slice duration, or zero if data is not sliced.
	Period() time.Duration
}

//go:generate mockery -name=Pusher -case=underscore -outpkg=coremock

// Pusher passes samples to the next stage of channel pipeline.
type Pusher interface {
	Push(ctx context.Context, samples []Sample) error
}

type PusherFunc func(ctx context.Context, samples []Sample) error

func (f PusherFunc) Push(ctx context.Context, samples []Sample) error { return f(ctx, samples) }

//go:generate mockery -name=Interceptor -case=underscore -outpkg=coremock

// Interceptor is a channel pipeline stage. Interceptor may transform, split,
// retry or drop samples, and should call next to pass them further.
// An Interceptor must be goroutine safe.
type Interceptor interface {
	Push(ctx context.Context, samples []Sample, next Pusher) error
}

//go:generate mockery -name=Storage -case=underscore -outpkg=coremock

// Storage is a terminal pipeline stage, that persists samples.
// Storage should not call next, unless it is designed for chaining.
type Storage interface {
	Interceptor
	// Flush persists buffered state, if any.
	Flush(ctx context.Context) error
}

// RollupOperation aggregates samples into one summary document field.
// RollupOperation is not goroutine safe: it is owned by one Storage.
type RollupOperation interface {
	Update(s Sample)
	// Result returns aggregate fields accumulated since last Reset.
	Result() config.Document
	Reset()
}

// Task is periodic channel maintenance routine.
type Task interface {
	// Run does one maintenance pass. Run should return quickly on ctx cancel.
	Run(ctx context.Context) error
	// Period returns how often task should run.
	Period() time.Duration
}

// SampleWriter is persistence layer consumed by storage plugins.
// Host injects it into storage plugin options.
type SampleWriter interface {
	Write(ctx context.Context, collection string, docs []config.Document) error
}

//go:generate mockery -name=CollectionAdmin -case=underscore -outpkg=coremock

// CollectionAdmin is persistence layer management consumed by task plugins.
// Host injects it into task plugin options.
type CollectionAdmin interface {
	// Collections returns names of existing collections with passed prefix.
	Collections(ctx context.Context, prefix string) ([]string, error)
	EnsureIndex(ctx context.Context, collection string, keys config.Document, opts config.Document) error
	Drop(ctx context.Context, collection string) error
}

// Configured is implemented by plugins that expose view they were constructed with.
type Configured interface {
	Config() *config.View
}

var capabilities = []reflect.Type{
	reflect.TypeOf((*IDFactory)(nil)).Elem(),
	reflect.TypeOf((*Allocator)(nil)).Elem(),
	reflect.TypeOf((*Interceptor)(nil)).Elem(),
	reflect.TypeOf((*Storage)(nil)).Elem(),
	reflect.TypeOf((*RollupOperation)(nil)).Elem(),
	reflect.TypeOf((*Task)(nil)).Elem(),
}

// Capabilities returns types of all extension points plugins can be loaded as.
func Capabilities() []reflect.Type {
	return append([]reflect.Type(nil), capabilities...)
}

// IsCapability returns true if t is one of extension point types.
func IsCapability(t reflect.Type) bool {
	for _, c := range capabilities {
		if c == t {
			return true
		}
	}
	return false
}

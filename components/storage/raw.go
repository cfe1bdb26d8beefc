// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package storage contains built-in terminal channel storages.
// Storages persist samples with host injected core.SampleWriter.
package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
)

// Well known keys of stored documents.
const (
	IDKey      = "_id"
	SourceKey  = "source"
	TimeKey    = "ts"
	DataKey    = "data"
	SamplesKey = "samples"
)

const defaultPrefix = "samples"

var ErrNoWriter = errors.New("sample writer is not injected")

type RawConfig struct {
	// Writer is injected by host. Raw without writer can be constructed
	// for config checks, but fails on push.
	Writer core.SampleWriter `config:"writer"`
	// Allocator slices data into collections. If not set, all data is stored in Prefix collection.
	Allocator core.Allocator `config:"allocator"`
	// IDFactory generates document ids. If not set, writer should generate them.
	IDFactory core.IDFactory `config:"id_factory"`
	Prefix    string         `config:"prefix" validate:"collection-prefix"`
}

func DefaultRawConfig() RawConfig {
	return RawConfig{Prefix: defaultPrefix}
}

// Raw stores every sample as a document.
type Raw struct {
	RawConfig
	view *config.View
}

var (
	_ core.Storage    = (*Raw)(nil)
	_ core.Configured = (*Raw)(nil)
)

func NewRaw(v *config.View) (*Raw, error) {
	conf := DefaultRawConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	return &Raw{RawConfig: conf, view: v}, nil
}

func (r *Raw) Push(ctx context.Context, samples []core.Sample, _ core.Pusher) error {
	if r.Writer == nil {
		return ErrNoWriter
	}
	groups := groupByCollection(samples, r.collection)
	for _, g := range groups {
		docs := make([]config.Document, len(g.samples))
		for i, s := range g.samples {
			docs[i] = r.document(s)
		}
		if err := r.Writer.Write(ctx, g.collection, docs); err != nil {
			return errors.WithMessagef(err, "write to %s", g.collection)
		}
	}
	zap.L().Debug("Samples stored", zap.Int("samples", len(samples)), zap.Int("collections", len(groups)))
	return nil
}

// Flush does nothing: samples are written on push.
func (r *Raw) Flush(context.Context) error { return nil }

func (r *Raw) Config() *config.View { return r.view }

func (r *Raw) collection(ts time.Time) string {
	if r.Allocator == nil {
		return r.Prefix
	}
	return r.Allocator.Collection(ts)
}

func (r *Raw) document(s core.Sample) config.Document {
	doc := config.Document{
		SourceKey: s.Source,
		TimeKey:   s.Timestamp,
		DataKey:   s.Data,
	}
	if r.IDFactory != nil {
		doc[IDKey] = r.IDFactory.NewID(s)
	}
	return doc
}

type collectionGroup struct {
	collection string
	samples    []core.Sample
}

// groupByCollection groups samples preserving order of first collection appearance.
func groupByCollection(samples []core.Sample, collection func(time.Time) string) []*collectionGroup {
	var groups []*collectionGroup
	index := map[string]*collectionGroup{}
	for _, s := range samples {
		name := collection(s.Timestamp)
		g, ok := index[name]
		if !ok {
			g = &collectionGroup{collection: name}
			index[name] = g
			groups = append(groups, g)
		}
		g.samples = append(g.samples, s)
	}
	return groups
}

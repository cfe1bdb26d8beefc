// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/plugin"
)

type RollupConfig struct {
	Writer    core.SampleWriter `config:"writer" validate:"required"`
	Allocator core.Allocator    `config:"allocator" validate:"required"`
	// IDFactory generates summary ids from collection name as source and window start time.
	IDFactory core.IDFactory `config:"id_factory"`
	// Ops are rollup operation plugin documents.
	Ops []interface{} `config:"rollup_ops" validate:"min=1"`
}

// Rollup aggregates samples of one allocator collection into summary document.
// Summary is written, when samples of another collection are pushed, or on Flush.
// Samples should be pushed in time order.
//
// Push and Flush fail only before any state change, so a failed call may be
// retried with the same samples. Samples of the pending window are kept until
// the window is finished. Summaries that could not be written after samples
// were accepted are queued and written first on the next Push or Flush.
type Rollup struct {
	writer    core.SampleWriter
	allocator core.Allocator
	ids       core.IDFactory
	ops       []core.RollupOperation
	view      *config.View

	mu      sync.Mutex
	pending *rollupWindow
	queued  []rollupSummary
}

type rollupWindow struct {
	collection string
	samples    []core.Sample
}

type rollupSummary struct {
	collection string
	doc        config.Document
}

var (
	_ core.Storage    = (*Rollup)(nil)
	_ core.Configured = (*Rollup)(nil)
)

func NewRollup(v *config.View) (*Rollup, error) {
	var conf RollupConfig
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	ops, err := plugin.LoadAllAs[core.RollupOperation](conf.Ops)
	if err != nil {
		return nil, errors.WithMessage(err, "rollup operations load")
	}
	return &Rollup{
		writer:    conf.Writer,
		allocator: conf.Allocator,
		ids:       conf.IDFactory,
		ops:       ops,
		view:      v,
	}, nil
}

func (r *Rollup) Push(ctx context.Context, samples []core.Sample, _ core.Pusher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeQueued(ctx); err != nil {
		return err
	}
	pending, finished := r.apply(samples)
	if len(finished) == 0 {
		r.pending = pending
		return nil
	}
	// Nothing is committed until first summary is stored.
	if err := r.write(ctx, finished[0]); err != nil {
		return err
	}
	r.pending = pending
	r.queued = finished[1:]
	if err := r.writeQueued(ctx); err != nil {
		zap.L().Warn("Rollup summaries queued",
			zap.Int("queued", len(r.queued)),
			zap.Error(err),
		)
	}
	return nil
}

func (r *Rollup) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		r.queued = append(r.queued, r.summarize(r.pending))
		r.pending = nil
	}
	return r.writeQueued(ctx)
}

// Close drops pending and queued summaries, releasing operations implementing io.Closer.
func (r *Rollup) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	r.queued = nil
	for _, op := range r.ops {
		if closer, ok := op.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	return nil
}

func (r *Rollup) Config() *config.View { return r.view }

// apply returns pending window with samples added, and summaries of windows
// finished by samples. Rollup state is not modified.
func (r *Rollup) apply(samples []core.Sample) (*rollupWindow, []rollupSummary) {
	var w *rollupWindow
	if r.pending != nil {
		// Appending never changes elements visible through r.pending.
		w = &rollupWindow{collection: r.pending.collection, samples: r.pending.samples}
	}
	var finished []rollupSummary
	for _, g := range groupByCollection(samples, r.allocator.Collection) {
		if w != nil && w.collection != g.collection {
			finished = append(finished, r.summarize(w))
			w = nil
		}
		if w == nil {
			w = &rollupWindow{collection: g.collection}
		}
		w.samples = append(w.samples, g.samples...)
	}
	return w, finished
}

func (r *Rollup) summarize(w *rollupWindow) rollupSummary {
	start := w.samples[0].Timestamp
	for _, op := range r.ops {
		op.Reset()
	}
	for _, s := range w.samples {
		for _, op := range r.ops {
			op.Update(s)
		}
		if s.Timestamp.Before(start) {
			start = s.Timestamp
		}
	}
	doc := config.Document{
		TimeKey:    start,
		SamplesKey: int64(len(w.samples)),
	}
	for _, op := range r.ops {
		for k, v := range op.Result() {
			doc[k] = v
		}
		op.Reset()
	}
	if r.ids != nil {
		doc[IDKey] = r.ids.NewID(core.Sample{Source: w.collection, Timestamp: start})
	}
	return rollupSummary{collection: w.collection, doc: doc}
}

func (r *Rollup) writeQueued(ctx context.Context) error {
	for len(r.queued) > 0 {
		if err := r.write(ctx, r.queued[0]); err != nil {
			return err
		}
		r.queued = r.queued[1:]
	}
	r.queued = nil
	return nil
}

func (r *Rollup) write(ctx context.Context, s rollupSummary) error {
	err := r.writer.Write(ctx, s.collection, []config.Document{s.doc})
	if err != nil {
		return errors.WithMessagef(err, "rollup write to %s", s.collection)
	}
	zap.L().Debug("Rollup stored",
		zap.String("collection", s.collection),
		zap.Any("samples", s.doc[SamplesKey]),
	)
	return nil
}

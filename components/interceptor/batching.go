// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package interceptor contains built-in channel pipeline interceptors.
package interceptor

import (
	"context"

	"github.com/c2h5oh/datasize"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/lib/monitoring"
)

type BatchingConfig struct {
	MaxBatchSize int `config:"max_batch_size" validate:"min=1"`
	// MaxBatchBytes limits estimated JSON size of batch samples data. Zero is no limit.
	MaxBatchBytes datasize.ByteSize `config:"max_batch_bytes" validate:"max-size=1GB"`
}

func DefaultBatchingConfig() BatchingConfig {
	return BatchingConfig{
		MaxBatchSize: 1000,
	}
}

// Batching splits pushed samples into batches limited by count and size,
// and pushes them downstream one by one. Push stops on first failed batch.
type Batching struct {
	BatchingConfig
	view    *config.View
	batches *monitoring.Counter
}

var (
	_ core.Interceptor = (*Batching)(nil)
	_ core.Configured  = (*Batching)(nil)
)

func NewBatching(v *config.View) (*Batching, error) {
	conf := DefaultBatchingConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	b := NewBatchingConf(conf)
	b.view = v
	return b, nil
}

func NewBatchingConf(conf BatchingConfig) *Batching {
	return &Batching{
		BatchingConfig: conf,
		batches:        monitoring.SharedCounter("hvdf.interceptor.batching.batches"),
	}
}

func (b *Batching) Push(ctx context.Context, samples []core.Sample, next core.Pusher) error {
	for len(samples) > 0 {
		n := b.batchLen(samples)
		if err := next.Push(ctx, samples[:n]); err != nil {
			return errors.WithMessagef(err, "batch of %d samples push failed", n)
		}
		b.batches.Inc()
		samples = samples[n:]
	}
	return nil
}

// batchLen returns length of next batch. Batch has at least one sample,
// even if it is larger than size limit.
func (b *Batching) batchLen(samples []core.Sample) int {
	n := len(samples)
	if n > b.MaxBatchSize {
		n = b.MaxBatchSize
	}
	if b.MaxBatchBytes == 0 {
		return n
	}
	var size datasize.ByteSize
	for i := 0; i < n; i++ {
		size += estimateSize(samples[i])
		if size > b.MaxBatchBytes && i > 0 {
			return i
		}
	}
	return n
}

func estimateSize(s core.Sample) datasize.ByteSize {
	data, err := jsoniter.ConfigFastest.Marshal(s.Data)
	if err != nil {
		zap.L().Debug("Sample size estimate failed", zap.Error(err))
		return 0
	}
	return datasize.ByteSize(len(data))
}

func (b *Batching) Config() *config.View { return b.view }

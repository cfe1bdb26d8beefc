// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/lib/errutil"
	"github.com/yandex/hvdf/lib/monitoring"
)

type RetryConfig struct {
	Attempts  int   `config:"attempts" validate:"min=1"`
	BackoffMs int64 `config:"backoff_ms" validate:"min=0"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:  3,
		BackoffMs: 100,
	}
}

// Retry repeats failed downstream pushes. Errors caused by context cancel
// are not retried.
type Retry struct {
	RetryConfig
	view    *config.View
	log     *zap.Logger
	retries *monitoring.Counter
	failed  *monitoring.Counter
}

var (
	_ core.Interceptor = (*Retry)(nil)
	_ core.Configured  = (*Retry)(nil)
)

func NewRetry(v *config.View) (*Retry, error) {
	conf := DefaultRetryConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	r := NewRetryConf(conf)
	r.view = v
	return r, nil
}

func NewRetryConf(conf RetryConfig) *Retry {
	return &Retry{
		RetryConfig: conf,
		log:         zap.L().With(zap.String("interceptor", "retry")),
		retries:     monitoring.SharedCounter("hvdf.interceptor.retry.retries"),
		failed:      monitoring.SharedCounter("hvdf.interceptor.retry.failed"),
	}
}

func (r *Retry) Push(ctx context.Context, samples []core.Sample, next core.Pusher) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = next.Push(ctx, samples)
		if err == nil || errutil.IsCtxError(ctx, err) {
			return err
		}
		if attempt >= r.Attempts {
			break
		}
		r.retries.Inc()
		r.log.Warn("Push failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("samples", len(samples)),
			zap.Error(err),
		)
		if err := r.backoff(ctx); err != nil {
			return err
		}
	}
	r.failed.Inc()
	return err
}

func (r *Retry) backoff(ctx context.Context) error {
	if r.BackoffMs == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(r.BackoffMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Retry) Config() *config.View { return r.view }

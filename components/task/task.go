// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package task contains built-in channel maintenance tasks.
// Tasks manage storage collections through host injected core.CollectionAdmin.
package task

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/lib/errutil"
)

const defaultPrefix = "samples"

var ErrNoAdmin = errors.New("collection admin is not injected")

type IndexConfig struct {
	Keys    config.Document `config:"keys" validate:"min=1"`
	Options config.Document `config:"options"`
}

type EnsureIndexesConfig struct {
	Admin    core.CollectionAdmin `config:"admin"`
	Indexes  []IndexConfig        `config:"indexes" validate:"min=1,dive"`
	Prefix   string               `config:"prefix" validate:"collection-prefix"`
	PeriodMs int64                `config:"period_ms" validate:"min=1"`
}

func DefaultEnsureIndexesConfig() EnsureIndexesConfig {
	return EnsureIndexesConfig{
		Prefix:   defaultPrefix,
		PeriodMs: int64(time.Minute / time.Millisecond),
	}
}

// EnsureIndexes creates configured indexes on every collection with prefix.
// New time slices get indexes on next run after they appeared.
type EnsureIndexes struct {
	EnsureIndexesConfig
	view *config.View
}

var (
	_ core.Task       = (*EnsureIndexes)(nil)
	_ core.Configured = (*EnsureIndexes)(nil)
)

func NewEnsureIndexes(v *config.View) (*EnsureIndexes, error) {
	conf := DefaultEnsureIndexesConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	return &EnsureIndexes{EnsureIndexesConfig: conf, view: v}, nil
}

func (t *EnsureIndexes) Run(ctx context.Context) error {
	if t.Admin == nil {
		return ErrNoAdmin
	}
	collections, err := t.Admin.Collections(ctx, t.Prefix)
	if err != nil {
		return errors.WithMessage(err, "collections list")
	}
	var result error
	for _, c := range collections {
		for _, ix := range t.Indexes {
			if ctx.Err() != nil {
				return errutil.Join(result, ctx.Err())
			}
			err := t.Admin.EnsureIndex(ctx, c, ix.Keys, ix.Options)
			if err != nil {
				result = errutil.Join(result, errors.WithMessagef(err, "index %v on %s", ix.Keys, c))
			}
		}
	}
	zap.L().Info("Indexes ensured",
		zap.String("prefix", t.Prefix),
		zap.Int("collections", len(collections)),
		zap.Int("indexes", len(t.Indexes)),
	)
	return result
}

func (t *EnsureIndexes) Period() time.Duration {
	return time.Duration(t.PeriodMs) * time.Millisecond
}

func (t *EnsureIndexes) Config() *config.View { return t.view }

type LimitSlicesConfig struct {
	Admin core.CollectionAdmin `config:"admin"`
	// Limit is max number of collections to keep.
	Limit    int    `config:"limit" validate:"min=1"`
	Prefix   string `config:"prefix" validate:"collection-prefix"`
	PeriodMs int64  `config:"period_ms" validate:"min=1"`
}

func DefaultLimitSlicesConfig() LimitSlicesConfig {
	return LimitSlicesConfig{
		Prefix:   defaultPrefix,
		PeriodMs: int64(time.Hour / time.Millisecond),
	}
}

// LimitSlices drops oldest time slices, when there are more than limit of them.
// Slice age is defined by name order, as allocators generate
// names that sort chronologically.
type LimitSlices struct {
	LimitSlicesConfig
	view *config.View
}

var (
	_ core.Task       = (*LimitSlices)(nil)
	_ core.Configured = (*LimitSlices)(nil)
)

func NewLimitSlices(v *config.View) (*LimitSlices, error) {
	conf := DefaultLimitSlicesConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	return &LimitSlices{LimitSlicesConfig: conf, view: v}, nil
}

func (t *LimitSlices) Run(ctx context.Context) error {
	if t.Admin == nil {
		return ErrNoAdmin
	}
	collections, err := t.Admin.Collections(ctx, t.Prefix)
	if err != nil {
		return errors.WithMessage(err, "collections list")
	}
	if len(collections) <= t.Limit {
		return nil
	}
	sorted := append([]string(nil), collections...)
	sort.Strings(sorted)
	var result error
	for _, c := range sorted[:len(sorted)-t.Limit] {
		if ctx.Err() != nil {
			return errutil.Join(result, ctx.Err())
		}
		if err := t.Admin.Drop(ctx, c); err != nil {
			result = errutil.Join(result, errors.WithMessagef(err, "drop %s", c))
			continue
		}
		zap.L().Info("Slice dropped", zap.String("collection", c), zap.Int("limit", t.Limit))
	}
	return result
}

func (t *LimitSlices) Period() time.Duration {
	return time.Duration(t.PeriodMs) * time.Millisecond
}

func (t *LimitSlices) Config() *config.View { return t.view }

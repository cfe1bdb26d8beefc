// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package allocator contains built-in collection allocators.
package allocator

import (
	"time"

	"github.com/pkg/errors"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
)

const (
	DefaultPrefix = "samples"
	// windowLayout is fixed width, so collection names sort chronologically.
	windowLayout = "20060102T150405"
)

type PeriodicConfig struct {
	WindowMs int64  `config:"window_ms" validate:"min=1"`
	Timezone string `config:"timezone" validate:"timezone"`
	Prefix   string `config:"prefix" validate:"collection-prefix"`
}

func DefaultPeriodicConfig() PeriodicConfig {
	return PeriodicConfig{
		WindowMs: int64(24 * time.Hour / time.Millisecond),
		Timezone: "UTC",
		Prefix:   DefaultPrefix,
	}
}

// Periodic slices channel data into collections of fixed time windows.
// Windows are aligned to midnight of epoch in configured timezone.
type Periodic struct {
	PeriodicConfig
	view     *config.View
	window   time.Duration
	location *time.Location
}

var (
	_ core.Allocator  = (*Periodic)(nil)
	_ core.Configured = (*Periodic)(nil)
)

func NewPeriodic(v *config.View) (*Periodic, error) {
	conf := DefaultPeriodicConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	p, err := NewPeriodicConf(conf)
	if err != nil {
		return nil, err
	}
	p.view = v
	return p, nil
}

func NewPeriodicConf(conf PeriodicConfig) (*Periodic, error) {
	location, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "timezone %q load", conf.Timezone)
	}
	return &Periodic{
		PeriodicConfig: conf,
		window:         time.Duration(conf.WindowMs) * time.Millisecond,
		location:       location,
	}, nil
}

func (p *Periodic) Collection(ts time.Time) string {
	return p.Prefix + "_" + p.WindowStart(ts).Format(windowLayout)
}

// WindowStart returns start of window containing ts, in allocator timezone.
func (p *Periodic) WindowStart(ts time.Time) time.Time {
	local := ts.In(p.location)
	_, offset := local.Zone()
	windowMs := p.WindowMs
	shifted := local.UnixMilli() + int64(offset)*1000
	start := shifted - mod(shifted, windowMs) - int64(offset)*1000
	return time.UnixMilli(start).In(p.location)
}

func (p *Periodic) Period() time.Duration { return p.window }

func (p *Periodic) Config() *config.View { return p.view }

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

type NoSlicingConfig struct {
	Prefix string `config:"prefix" validate:"collection-prefix"`
}

func DefaultNoSlicingConfig() NoSlicingConfig {
	return NoSlicingConfig{Prefix: DefaultPrefix}
}

// NoSlicing stores all channel data in one collection.
type NoSlicing struct {
	NoSlicingConfig
	view *config.View
}

var (
	_ core.Allocator  = (*NoSlicing)(nil)
	_ core.Configured = (*NoSlicing)(nil)
)

func NewNoSlicing(v *config.View) (*NoSlicing, error) {
	conf := DefaultNoSlicingConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	return &NoSlicing{NoSlicingConfig: conf, view: v}, nil
}

func (a *NoSlicing) Collection(time.Time) string { return a.Prefix }

func (a *NoSlicing) Period() time.Duration { return 0 }

func (a *NoSlicing) Config() *config.View { return a.view }

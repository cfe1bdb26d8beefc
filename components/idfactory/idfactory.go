// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package idfactory contains built-in sample identifier factories.
package idfactory

import (
	"go.uber.org/atomic"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
)

const (
	seqBits = 22
	seqMask = 1<<seqBits - 1
)

// TimeOnly generates int64 ids, ordered by sample time: milliseconds since
// epoch in high bits and per-factory sequence in low 22 bits.
// Ids are unique while less than 4M samples per millisecond are pushed.
type TimeOnly struct {
	view *config.View
	seq  atomic.Uint32
}

var (
	_ core.IDFactory  = (*TimeOnly)(nil)
	_ core.Configured = (*TimeOnly)(nil)
)

func NewTimeOnly(v *config.View) (*TimeOnly, error) {
	var conf struct{}
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	return &TimeOnly{view: v}, nil
}

func (f *TimeOnly) NewID(s core.Sample) interface{} {
	seq := int64(f.seq.Inc()-1) & seqMask
	return s.Timestamp.UnixMilli()<<seqBits | seq
}

func (f *TimeOnly) Config() *config.View { return f.view }

// TimeOnlyParts splits id generated by TimeOnly into milliseconds and sequence.
func TimeOnlyParts(id int64) (millis int64, seq int64) {
	return id >> seqBits, id & seqMask
}

type SourceTimeDocumentConfig struct {
	SourceField string `config:"source_field" validate:"required"`
	TimeField   string `config:"time_field" validate:"required"`
}

func DefaultSourceTimeDocumentConfig() SourceTimeDocumentConfig {
	return SourceTimeDocumentConfig{
		SourceField: "source",
		TimeField:   "ts",
	}
}

// SourceTimeDocument generates document ids of sample source and time.
// Samples of one source with equal time have equal ids.
type SourceTimeDocument struct {
	SourceTimeDocumentConfig
	view *config.View
}

var (
	_ core.IDFactory  = (*SourceTimeDocument)(nil)
	_ core.Configured = (*SourceTimeDocument)(nil)
)

func NewSourceTimeDocument(v *config.View) (*SourceTimeDocument, error) {
	conf := DefaultSourceTimeDocumentConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	return &SourceTimeDocument{SourceTimeDocumentConfig: conf, view: v}, nil
}

func (f *SourceTimeDocument) NewID(s core.Sample) interface{} {
	return config.Document{
		f.SourceField: s.Source,
		f.TimeField:   s.Timestamp,
	}
}

func (f *SourceTimeDocument) Config() *config.View { return f.view }

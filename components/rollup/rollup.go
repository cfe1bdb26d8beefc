// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package rollup contains built-in rollup operations. Operations read sample
// data fields by dotted path, like `cpu.load[0]`.
package rollup

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/lib/mp"
)

type FieldConfig struct {
	Field string `config:"field" validate:"field-path"`
	// Name is result field name. Default is operation name and field joined by underscore.
	Name string `config:"name"`
}

type CountConfig struct {
	Name string `config:"name" validate:"required"`
}

func DefaultCountConfig() CountConfig {
	return CountConfig{Name: "count"}
}

type numericFunc func(acc, val float64) float64

// Numeric accumulates numeric field values. Samples without field, or with
// non-numeric field value are skipped.
type Numeric struct {
	FieldConfig
	view *config.View
	fn   numericFunc
	// zero is result when no values accumulated; nil means no result field.
	zero  interface{}
	acc   float64
	count int
}

var (
	_ core.RollupOperation = (*Numeric)(nil)
	_ core.Configured      = (*Numeric)(nil)
)

func NewMax(v *config.View) (*Numeric, error) {
	return newNumeric(v, "max", nil, func(acc, val float64) float64 {
		if val > acc {
			return val
		}
		return acc
	})
}

func NewMin(v *config.View) (*Numeric, error) {
	return newNumeric(v, "min", nil, func(acc, val float64) float64 {
		if val < acc {
			return val
		}
		return acc
	})
}

func NewTotal(v *config.View) (*Numeric, error) {
	return newNumeric(v, "total", float64(0), func(acc, val float64) float64 {
		return acc + val
	})
}

func newNumeric(v *config.View, op string, zero interface{}, fn numericFunc) (*Numeric, error) {
	var conf FieldConfig
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	if conf.Name == "" {
		conf.Name = defaultName(op, conf.Field)
	}
	return &Numeric{FieldConfig: conf, view: v, fn: fn, zero: zero}, nil
}

func (n *Numeric) Update(s core.Sample) {
	val, ok := numericField(s, n.Field)
	if !ok {
		return
	}
	if n.count == 0 {
		n.acc = val
	} else {
		n.acc = n.fn(n.acc, val)
	}
	n.count++
}

func (n *Numeric) Result() config.Document {
	if n.count == 0 {
		if n.zero == nil {
			return config.Document{}
		}
		return config.Document{n.Name: n.zero}
	}
	return config.Document{n.Name: n.acc}
}

func (n *Numeric) Reset() {
	n.acc = 0
	n.count = 0
}

func (n *Numeric) Config() *config.View { return n.view }

// Count counts updated samples.
type Count struct {
	CountConfig
	view  *config.View
	count int64
}

var (
	_ core.RollupOperation = (*Count)(nil)
	_ core.Configured      = (*Count)(nil)
)

func NewCount(v *config.View) (*Count, error) {
	conf := DefaultCountConfig()
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	return &Count{CountConfig: conf, view: v}, nil
}

func (c *Count) Update(core.Sample)      { c.count++ }
func (c *Count) Result() config.Document { return config.Document{c.Name: c.count} }
func (c *Count) Reset()                  { c.count = 0 }
func (c *Count) Config() *config.View    { return c.view }

// GroupCount counts samples by distinct field values. Values are grouped by
// string representation. Samples without field are skipped.
type GroupCount struct {
	FieldConfig
	view   *config.View
	groups map[string]int64
}

var (
	_ core.RollupOperation = (*GroupCount)(nil)
	_ core.Configured      = (*GroupCount)(nil)
)

func NewGroupCount(v *config.View) (*GroupCount, error) {
	var conf FieldConfig
	if err := v.Decode(&conf); err != nil {
		return nil, err
	}
	if conf.Name == "" {
		conf.Name = defaultName("count_by", conf.Field)
	}
	return &GroupCount{FieldConfig: conf, view: v, groups: map[string]int64{}}, nil
}

func (g *GroupCount) Update(s core.Sample) {
	val, err := mp.GetMapValue(s.Data, g.Field)
	if err != nil {
		return
	}
	g.groups[fmt.Sprint(val)]++
}

func (g *GroupCount) Result() config.Document {
	groups := make(config.Document, len(g.groups))
	for k, v := range g.groups {
		groups[k] = v
	}
	return config.Document{g.Name: groups}
}

func (g *GroupCount) Reset() { g.groups = map[string]int64{} }

func (g *GroupCount) Config() *config.View { return g.view }

func defaultName(op, field string) string {
	return op + "_" + strings.ReplaceAll(field, ".", "_")
}

func numericField(s core.Sample, field string) (float64, bool) {
	val, err := mp.GetMapValue(s.Data, field)
	if err != nil || val == nil {
		return 0, false
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

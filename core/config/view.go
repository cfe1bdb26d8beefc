// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"math"
	"reflect"

	"go.uber.org/zap"

	"github.com/yandex/hvdf/core/svcerr"
)

// Type is semantic type of option value.
type Type int

const (
	Any Type = iota
	String
	Int
	Float
	Bool
	DocumentType
	Sequence
)

func (t Type) String() string {
	switch t {
	case Any:
		return "any"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case DocumentType:
		return "document"
	case Sequence:
		return "sequence"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// View is typed accessor of plugin options document.
// View is coupled with plugin implementation type, and coercion hooks
// registered for it, that are used by Decode.
// View is not goroutine safe, if PutAll is used.
type View struct {
	doc   Document
	impl  reflect.Type
	hooks []TypeHook
}

// NewView creates view over doc. View takes ownership of doc: caller should
// not modify it after. impl may be nil, if view is not bound to plugin
// implementation.
func NewView(doc Document, impl reflect.Type, hooks ...TypeHook) *View {
	if doc == nil {
		doc = Document{}
	}
	return &View{doc: doc, impl: impl, hooks: hooks}
}

// Impl returns type of plugin implementation view was created for, or nil.
func (v *View) Impl() reflect.Type { return v.impl }

// Raw returns underlying document. It should not be modified.
func (v *View) Raw() Document { return v.doc }

func (v *View) Has(key string) bool {
	_, ok := v.doc[key]
	return ok
}

func (v *View) Keys() []string { return v.doc.Keys() }

// Get returns value at key coerced to t.
// Returns CONFIG_MISSING_REQUIRED error if there is no such key,
// and CONFIG_TYPE_MISMATCH if value can't be coerced.
func (v *View) Get(key string, t Type) (interface{}, error) {
	raw, ok := v.doc[key]
	if !ok {
		return nil, svcerr.New(svcerr.ConfigMissingRequired).
			Set(svcerr.ConfigKey, key).
			Set(svcerr.ExpectedKey, t.String())
	}
	return v.coerce(key, raw, t)
}

// GetOr behaves like Get, but returns def if there is no such key.
// Type mismatch is still an error.
func (v *View) GetOr(key string, t Type, def interface{}) (interface{}, error) {
	raw, ok := v.doc[key]
	if !ok {
		return def, nil
	}
	return v.coerce(key, raw, t)
}

// PutAll overlays entries of overlay on view document. Entries not in
// overlay are kept.
func (v *View) PutAll(overlay map[string]interface{}) {
	for k, val := range overlay {
		v.doc[k] = val
	}
}

// Decode decodes whole document into config struct pointer, and validates it.
// Coercion hooks the plugin was registered with are applied after global ones.
// Unknown keys are error, except top level keys holding host objects, that
// can't be written in config file. So host may inject collaborators, that
// plugin doesn't use.
func (v *View) Decode(result interface{}) error {
	zap.L().Debug("Decoding plugin config",
		zap.Stringer("impl", typeStringer{v.impl}),
		zap.Stringer("config type", reflect.TypeOf(result)),
		zap.String("config data", fmt.Sprint(v.doc)),
	)
	err := decodeIgnoring(map[string]interface{}(v.doc), result, v.hooks, v.isInjected)
	if err == nil {
		err = Validate(result)
	}
	if err != nil {
		return svcerr.Wrap(err, svcerr.ConfigTypeMismatch).
			Set(svcerr.ExpectedKey, reflect.TypeOf(result).String())
	}
	return nil
}

func (v *View) isInjected(key string) bool {
	val, ok := v.doc[key]
	return ok && !isOptionData(val)
}

// isOptionData returns true for values config parsers produce.
func isOptionData(val interface{}) bool {
	if val == nil {
		return true
	}
	switch reflect.ValueOf(val).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func (v *View) String(key string) (string, error) {
	val, err := v.Get(key, String)
	if err != nil {
		return "", err
	}
	return val.(string), nil
}

func (v *View) StringOr(key string, def string) (string, error) {
	val, err := v.GetOr(key, String, def)
	if err != nil {
		return def, err
	}
	return val.(string), nil
}

func (v *View) Int(key string) (int64, error) {
	val, err := v.Get(key, Int)
	if err != nil {
		return 0, err
	}
	return val.(int64), nil
}

func (v *View) IntOr(key string, def int64) (int64, error) {
	val, err := v.GetOr(key, Int, def)
	if err != nil {
		return def, err
	}
	return val.(int64), nil
}

func (v *View) Float(key string) (float64, error) {
	val, err := v.Get(key, Float)
	if err != nil {
		return 0, err
	}
	return val.(float64), nil
}

func (v *View) FloatOr(key string, def float64) (float64, error) {
	val, err := v.GetOr(key, Float, def)
	if err != nil {
		return def, err
	}
	return val.(float64), nil
}

func (v *View) Bool(key string) (bool, error) {
	val, err := v.Get(key, Bool)
	if err != nil {
		return false, err
	}
	return val.(bool), nil
}

func (v *View) BoolOr(key string, def bool) (bool, error) {
	val, err := v.GetOr(key, Bool, def)
	if err != nil {
		return def, err
	}
	return val.(bool), nil
}

func (v *View) Document(key string) (Document, error) {
	val, err := v.Get(key, DocumentType)
	if err != nil {
		return nil, err
	}
	return val.(Document), nil
}

// DocumentOr returns nested document, or def if there is no such key.
// Nil def is replaced by empty document.
func (v *View) DocumentOr(key string, def Document) (Document, error) {
	if def == nil {
		def = Document{}
	}
	val, err := v.GetOr(key, DocumentType, def)
	if err != nil {
		return nil, err
	}
	return val.(Document), nil
}

func (v *View) Sequence(key string) ([]interface{}, error) {
	val, err := v.Get(key, Sequence)
	if err != nil {
		return nil, err
	}
	return val.([]interface{}), nil
}

func (v *View) SequenceOr(key string, def []interface{}) ([]interface{}, error) {
	val, err := v.GetOr(key, Sequence, def)
	if err != nil {
		return def, err
	}
	seq, _ := val.([]interface{}) // Nil def.
	return seq, nil
}

// Injected returns value of type T, that was injected into plugin options
// by host. Returns CONFIG_MISSING_REQUIRED, if there is no such key, and
// CONFIG_TYPE_MISMATCH, if value is not T.
func Injected[T any](v *View, key string) (T, error) {
	var zero T
	raw, err := v.Get(key, Any)
	if err != nil {
		return zero, err
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, mismatch(key, raw, reflect.TypeOf(&zero).Elem().String())
	}
	return typed, nil
}

// InjectedOr behaves like Injected, but returns def, if there is no such key.
func InjectedOr[T any](v *View, key string, def T) (T, error) {
	if !v.Has(key) {
		return def, nil
	}
	return Injected[T](v, key)
}

func (v *View) coerce(key string, raw interface{}, t Type) (interface{}, error) {
	val, ok := coerce(raw, t)
	if !ok {
		return nil, mismatch(key, raw, t.String())
	}
	return val, nil
}

func mismatch(key string, raw interface{}, expected string) *svcerr.Error {
	return svcerr.New(svcerr.ConfigTypeMismatch).
		Set(svcerr.ConfigKey, key).
		Set(svcerr.ExpectedKey, expected).
		Set(svcerr.ActualKey, fmt.Sprintf("%T", raw))
}

func coerce(raw interface{}, t Type) (interface{}, bool) {
	switch t {
	case Any:
		return raw, true
	case String:
		s, ok := raw.(string)
		return s, ok
	case Bool:
		b, ok := raw.(bool)
		return b, ok
	case Int:
		return toInt(raw)
	case Float:
		return toFloat(raw)
	case DocumentType:
		if raw == nil {
			return nil, false
		}
		doc, err := ToDocument(raw)
		return doc, err == nil
	case Sequence:
		if raw == nil {
			return nil, false
		}
		val := reflect.ValueOf(raw)
		if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
			return nil, false
		}
		if s, ok := raw.([]interface{}); ok {
			return s, true
		}
		out := make([]interface{}, val.Len())
		for i := range out {
			out[i] = val.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func toInt(raw interface{}) (interface{}, bool) {
	val := reflect.ValueOf(raw)
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := val.Uint()
		if u > math.MaxInt64 {
			return nil, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		// JSON and HCL numbers are floats.
		f := val.Float()
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return nil, false
		}
		return int64(f), true
	}
	return nil, false
}

func toFloat(raw interface{}) (interface{}, bool) {
	val := reflect.ValueOf(raw)
	switch val.Kind() {
	case reflect.Float32, reflect.Float64:
		return val.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(val.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(val.Uint()), true
	}
	return nil, false
}

type typeStringer struct{ t reflect.Type }

func (s typeStringer) String() string {
	if s.t == nil {
		return "<none>"
	}
	return s.t.String()
}

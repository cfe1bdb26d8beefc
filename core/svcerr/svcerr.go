// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package svcerr contains structured errors produced by config views and
// plugin loading. Every error carries a Kind discriminant and a bag of
// diagnostic fields, so pipeline tooling can tell which config fragment failed.
package svcerr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

type Kind int

const (
	ConfigMissingRequired Kind = iota + 1
	ConfigTypeMismatch
	PluginClassNotFound
	PluginConstructorMissing
	PluginIncorrectType
	PluginError
)

var kindNames = map[Kind]string{
	ConfigMissingRequired:    "CONFIG_MISSING_REQUIRED",
	ConfigTypeMismatch:       "CONFIG_TYPE_MISMATCH",
	PluginClassNotFound:      "PLUGIN_CLASS_NOT_FOUND",
	PluginConstructorMissing: "PLUGIN_CONSTRUCTOR_MISSING",
	PluginIncorrectType:      "PLUGIN_INCORRECT_TYPE",
	PluginError:              "PLUGIN_ERROR",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_KIND(%d)", int(k))
}

// Well known diagnostic field keys.
const (
	TypeKey       = "type"
	PluginTypeKey = "plugin_type"
	ReasonKey     = "reason"
	ConfigKey     = "key"
	ExpectedKey   = "expected"
	ActualKey     = "actual"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Error is a structured error. Construct it with New or Wrap and attach
// diagnostics with Set.
type Error struct {
	kind   Kind
	fields map[string]interface{}
	cause  error
	// origin is used only for stack trace capture.
	origin error
}

var (
	_ error                   = (*Error)(nil)
	_ zapcore.ObjectMarshaler = (*Error)(nil)
)

func New(kind Kind) *Error {
	return &Error{
		kind:   kind,
		fields: map[string]interface{}{},
		origin: errors.New(kind.String()),
	}
}

// Wrap creates error of passed kind caused by err.
// Returns nil if err is nil.
func Wrap(err error, kind Kind) *Error {
	if err == nil {
		return nil
	}
	e := New(kind)
	e.cause = err
	return e
}

// Set attaches diagnostic field and returns the same error, so calls can be chained.
func (e *Error) Set(key string, val interface{}) *Error {
	e.fields[key] = val
	return e
}

func (e *Error) Kind() Kind { return e.kind }

// Field returns diagnostic value and true if it was set.
func (e *Error) Field(key string) (interface{}, bool) {
	v, ok := e.fields[key]
	return v, ok
}

// Fields returns copy of diagnostic bag.
func (e *Error) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

func (e *Error) Cause() error  { return e.cause }
func (e *Error) Unwrap() error { return e.cause }

func (e *Error) StackTrace() errors.StackTrace {
	return e.origin.(stackTracer).StackTrace()
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind.String())
	keys := e.sortedKeys()
	if len(keys) > 0 {
		b.WriteString(":")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.fields[k])
		}
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", e.kind.String())
	for _, k := range e.sortedKeys() {
		if err := enc.AddReflected(k, e.fields[k]); err != nil {
			return err
		}
	}
	if e.cause != nil {
		enc.AddString("cause", e.cause.Error())
	}
	return nil
}

func (e *Error) sortedKeys() []string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KindOf returns kind of the outermost *Error in err chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.kind, true
	}
	return 0, false
}

// Is returns true if any *Error in err chain has passed kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if se, ok := err.(*Error); ok && se.kind == kind {
			return true
		}
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Cause() error }:
			err = x.Cause()
		default:
			return false
		}
	}
	return false
}

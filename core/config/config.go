// Copyright (c) 2016 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package config

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const TagName = "config"

// Decode decodes conf to result. Doesn't zero fields.
func Decode(conf interface{}, result interface{}) error {
	return decode(conf, result, nil)
}

func DecodeAndValidate(conf interface{}, result interface{}) error {
	err := Decode(conf, result)
	if err != nil {
		return err
	}
	return Validate(result)
}

// decode decodes with global hooks, and then extra hooks.
func decode(conf interface{}, result interface{}, extra []TypeHook) error {
	return decodeIgnoring(conf, result, extra, nil)
}

// decodeIgnoring behaves like decode, but unused top level keys for which
// ignore returns true are not an error.
func decodeIgnoring(conf interface{}, result interface{}, extra []TypeHook, ignore func(key string) bool) error {
	var (
		md    mapstructure.Metadata
		hooks hookErrors
	)
	dc := newDecoderConfig(result, extra)
	dc.DecodeHook = hooks.wrap(dc.DecodeHook)
	if ignore != nil {
		dc.ErrorUnused = false
		dc.Metadata = &md
	}
	decoder, err := mapstructure.NewDecoder(dc)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := decoder.Decode(conf); err != nil {
		return errors.WithStack(hooks.decodeError(err))
	}
	var invalid []string
	for _, key := range md.Unused {
		if !ignore(key) {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return errors.Errorf("has invalid keys: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// DecodeError is returned, when decode hooks failed. Mapstructure reports
// nested field errors as strings, so DecodeError keeps original hook errors,
// for example nested plugin load errors.
// Unwrap returns first hook error.
type DecodeError struct {
	err   error
	hooks []error
}

func (e *DecodeError) Error() string { return e.err.Error() }
func (e *DecodeError) Unwrap() error { return e.hooks[0] }
func (e *DecodeError) Cause() error  { return e.hooks[0] }

// HookErrors returns errors of decode hooks in order they happened.
func (e *DecodeError) HookErrors() []error {
	return append([]error(nil), e.hooks...)
}

// hookErrors collects errors of decode hooks during one decode.
type hookErrors struct {
	errs []error
}

func (h *hookErrors) wrap(hook mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(from reflect.Value, to reflect.Value) (interface{}, error) {
		out, err := mapstructure.DecodeHookExec(hook, from, to)
		if err != nil {
			h.errs = append(h.errs, err)
		}
		return out, err
	}
}

func (h *hookErrors) decodeError(err error) error {
	if len(h.errs) == 0 {
		return err
	}
	return &DecodeError{err: err, hooks: h.errs}
}

func newDecoderConfig(result interface{}, extra []TypeHook) *mapstructure.DecoderConfig {
	hook := compiledHooks()
	if len(extra) > 0 {
		composed := []mapstructure.DecodeHookFunc{hook}
		for _, h := range extra {
			composed = append(composed, mapstructure.DecodeHookFuncType(h))
		}
		hook = mapstructure.ComposeDecodeHookFunc(composed...)
	}
	return &mapstructure.DecoderConfig{
		DecodeHook:       hook,
		ErrorUnused:      true,
		ZeroFields:       false,
		WeaklyTypedInput: false,
		TagName:          TagName,
		Result:           result,
	}
}

type TypeHook mapstructure.DecodeHookFuncType
type KindHook mapstructure.DecodeHookFuncKind

// AddTypeHook adds global decode hook.
// Returning value allow do `var _ = AddTypeHook(xxx)`
func AddTypeHook(hook TypeHook) (_ struct{}) {
	addHook(mapstructure.DecodeHookFuncType(hook))
	return
}

func AddKindHook(hook KindHook) (_ struct{}) {
	addHook(mapstructure.DecodeHookFuncKind(hook))
	return
}

func DefaultHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		TagResolveHook,
		DebugHook,
		TextUnmarshallerHook,
		mapstructure.StringToTimeDurationHookFunc(),
		StringToURLHook,
		StringToDataSizeHook,
	}
}

func GetHooks() []mapstructure.DecodeHookFunc {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	return append([]mapstructure.DecodeHookFunc(nil), hooks...)
}

func SetHooks(h []mapstructure.DecodeHookFunc) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = h
	compiledHook = nil
}

// Hooks are modified on init and import, but decoded from any goroutine
// building plugins, so access is guarded.
var (
	hooksMu      sync.Mutex
	hooks        = DefaultHooks()
	compiledHook mapstructure.DecodeHookFunc
)

func addHook(hook mapstructure.DecodeHookFunc) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = append(hooks, hook)
	compiledHook = nil
}

func compiledHooks() mapstructure.DecodeHookFunc {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if compiledHook == nil {
		compiledHook = mapstructure.ComposeDecodeHookFunc(hooks...)
	}
	return compiledHook
}

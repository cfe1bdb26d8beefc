// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package plugin

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/yandex/hvdf/core/config"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	viewType  = reflect.TypeOf((*config.View)(nil))
)

// constructor wraps registered func(*config.View) (<pluginImpl>[, error]).
// Parameters are not checked on registration: constructor that does not
// accept view is registered, but fails on every call.
type constructor struct {
	newPlugin reflect.Value
}

func newConstructor(newPlugin interface{}) *constructor {
	expect(newPlugin != nil, "plugin constructor is nil")
	newPluginType := reflect.TypeOf(newPlugin)
	expect(newPluginType.Kind() == reflect.Func, "plugin constructor should be func, but have: %s", newPluginType)
	expect(1 <= newPluginType.NumOut() && newPluginType.NumOut() <= 2,
		"plugin constructor should return plugin implementation, and optionally error")
	if newPluginType.NumOut() == 2 {
		expect(newPluginType.Out(1) == errorType, "plugin constructor should have no second return value, or it should be error")
	}
	expect(newPluginType.Out(0) != errorType, "plugin constructor first return value should not be error")
	return &constructor{reflect.ValueOf(newPlugin)}
}

// implType returns declared plugin implementation type.
func (c *constructor) implType() reflect.Type {
	return c.newPlugin.Type().Out(0)
}

// acceptsView returns true if constructor accepts exactly one view argument.
func (c *constructor) acceptsView() bool {
	t := c.newPlugin.Type()
	return t.NumIn() == 1 && !t.IsVariadic() && t.In(0) == viewType
}

// call calls constructor. Plugin is nil, if constructor returned nil implementation.
// Panic in constructor is returned as error.
func (c *constructor) call(view *config.View) (plugin interface{}, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if rErr, ok := r.(error); ok {
			err = errors.Wrap(rErr, "plugin constructor panic")
		} else {
			err = errors.Errorf("plugin constructor panic: %v", r)
		}
		plugin = nil
	}()
	out := c.newPlugin.Call([]reflect.Value{reflect.ValueOf(view)})
	if !isNil(out[0]) {
		plugin = out[0].Interface()
	}
	if len(out) > 1 {
		err, _ = out[1].Interface().(error)
	}
	return
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

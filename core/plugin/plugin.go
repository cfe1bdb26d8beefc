// Copyright (c) 2016 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package plugin

import (
	"fmt"
	"reflect"

	"github.com/yandex/hvdf/core/config"
)

var defaultRegistry = NewRegistry()

// Register registers plugin constructor under canonical identifier in default registry.
// See package doc for type expectations details.
// Register designed to be called in package init func, so it panics if type
// expectations were failed.
func Register(id string, newPlugin interface{}, hooks ...config.TypeHook) {
	defaultRegistry.Register(id, newPlugin, hooks...)
}

// Lookup returns true if plugin has been registered for id or alias.
func Lookup(id string) bool {
	return defaultRegistry.Lookup(id)
}

// Registered returns sorted identifiers of all registered plugins.
func Registered() []string {
	return defaultRegistry.Registered()
}

// Load creates plugin implementing capability from plugin document using default registry.
// See Registry.Load for details.
func Load(capability reflect.Type, conf interface{}, overlayOptional ...map[string]interface{}) (interface{}, error) {
	return defaultRegistry.Load(capability, conf, overlayOptional...)
}

// New creates plugin by canonical identifier and final options using default registry.
func New(capability reflect.Type, id string, opts config.Document) (interface{}, error) {
	return defaultRegistry.New(capability, id, opts)
}

// LoadAll loads list of plugin documents using default registry.
// See Registry.LoadAll for details.
func LoadAll(capability reflect.Type, confs []interface{}, overlayOptional ...map[string]interface{}) ([]interface{}, error) {
	return defaultRegistry.LoadAll(capability, confs, overlayOptional...)
}

// LoadAs is typed Load. T should be interface.
func LoadAs[T any](conf interface{}, overlayOptional ...map[string]interface{}) (T, error) {
	var zero T
	plugin, err := Load(PtrType((*T)(nil)), conf, overlayOptional...)
	if err != nil {
		return zero, err
	}
	return plugin.(T), nil
}

// LoadAllAs is typed LoadAll. T should be interface.
func LoadAllAs[T any](confs []interface{}, overlayOptional ...map[string]interface{}) ([]T, error) {
	plugins, err := LoadAll(PtrType((*T)(nil)), confs, overlayOptional...)
	if err != nil {
		return nil, err
	}
	typed := make([]T, len(plugins))
	for i, p := range plugins {
		typed[i] = p.(T)
	}
	return typed, nil
}

// PtrType is helper to extract plugin types.
// Example: plugin.PtrType((*core.Interceptor)(nil)) instead of
// reflect.TypeOf((*core.Interceptor)(nil)).Elem()
func PtrType(ptr interface{}) reflect.Type {
	t := reflect.TypeOf(ptr)
	if t.Kind() != reflect.Ptr {
		panic("passed value is not pointer")
	}
	return t.Elem()
}

func expect(b bool, msg string, args ...interface{}) {
	if !b {
		panic(fmt.Sprintf("expectation failed: "+msg, args...))
	}
}

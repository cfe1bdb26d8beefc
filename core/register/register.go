// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package register contains typed helpers for registering plugins of core capabilities.
// Unlike plugin.Register, they check at registration that constructor returns
// capability implementation.
package register

import (
	"fmt"
	"reflect"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/plugin"
)

// RegisterPtr registers constructor, that should return implementation of
// interface ptr points to.
func RegisterPtr(ptr interface{}, id string, newPlugin interface{}, hooks ...config.TypeHook) {
	capability := plugin.PtrType(ptr)
	newPluginType := reflect.TypeOf(newPlugin)
	if newPluginType == nil || newPluginType.Kind() != reflect.Func || newPluginType.NumOut() == 0 {
		panic(fmt.Sprintf("expectation failed: %s plugin %q constructor should be func returning plugin, but have: %v", capability, id, newPluginType))
	}
	if impl := newPluginType.Out(0); !impl.Implements(capability) {
		panic(fmt.Sprintf("expectation failed: %s plugin %q constructor returns %s, that is not implementation", capability, id, impl))
	}
	plugin.Register(id, newPlugin, hooks...)
}

func IDFactory(id string, newIDFactory interface{}, hooks ...config.TypeHook) {
	var ptr *core.IDFactory
	RegisterPtr(ptr, id, newIDFactory, hooks...)
}

func Allocator(id string, newAllocator interface{}, hooks ...config.TypeHook) {
	var ptr *core.Allocator
	RegisterPtr(ptr, id, newAllocator, hooks...)
}

func Interceptor(id string, newInterceptor interface{}, hooks ...config.TypeHook) {
	var ptr *core.Interceptor
	RegisterPtr(ptr, id, newInterceptor, hooks...)
}

func Storage(id string, newStorage interface{}, hooks ...config.TypeHook) {
	var ptr *core.Storage
	RegisterPtr(ptr, id, newStorage, hooks...)
}

func RollupOperation(id string, newOperation interface{}, hooks ...config.TypeHook) {
	var ptr *core.RollupOperation
	RegisterPtr(ptr, id, newOperation, hooks...)
}

func Task(id string, newTask interface{}, hooks ...config.TypeHook) {
	var ptr *core.Task
	RegisterPtr(ptr, id, newTask, hooks...)
}

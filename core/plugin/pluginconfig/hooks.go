// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package pluginconfig contains integration plugin with config packages.
// Doing such integration in different package allows to config and plugin packages
// not depend on each other, and set hooks when their are really needed.
package pluginconfig

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/plugin"
)

var addHooksOnce sync.Once

// AddHooks adds Hook to global config decode hooks. Safe to call many times.
func AddHooks() {
	addHooksOnce.Do(func() {
		config.AddTypeHook(Hook)
	})
}

// Hook loads plugin, when config struct field is one of core capabilities,
// and data is plugin document or plugin type string. Other data, like
// already created plugin injected by host, is passed as is.
func Hook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if !core.IsCapability(t) {
		return data, nil
	}
	var conf interface{}
	switch d := data.(type) {
	case map[string]interface{}, map[interface{}]interface{}, config.Document:
		conf = d
	case string:
		// Plugin without options: `- count` instead of `- type: count`.
		conf = config.Document{plugin.TypeKey: d}
	default:
		return data, nil
	}
	zap.L().Debug("Loading nested plugin",
		zap.Stringer("plugin_type", t),
		zap.Stringer("data type", f),
	)
	return plugin.Load(t, conf)
}

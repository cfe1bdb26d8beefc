// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package coreimport registers built-in plugins under canonical identifiers,
// that plugin aliases are resolved to.
package coreimport

import (
	"sync"

	"github.com/yandex/hvdf/components/allocator"
	"github.com/yandex/hvdf/components/idfactory"
	"github.com/yandex/hvdf/components/interceptor"
	"github.com/yandex/hvdf/components/rollup"
	"github.com/yandex/hvdf/components/storage"
	"github.com/yandex/hvdf/components/task"
	"github.com/yandex/hvdf/core/plugin"
	"github.com/yandex/hvdf/core/plugin/pluginconfig"
	"github.com/yandex/hvdf/core/register"
)

var importOnce sync.Once

// Import registers built-in plugins and plugin config decode hooks.
// Should be called before any plugin load. Safe to call many times.
func Import() {
	importOnce.Do(func() {
		register.IDFactory(id("time_only"), idfactory.NewTimeOnly)
		register.IDFactory(id("source_time_document"), idfactory.NewSourceTimeDocument)

		register.Allocator(id("periodic"), allocator.NewPeriodic)
		register.Allocator(id("no_slicing"), allocator.NewNoSlicing)

		register.Interceptor(id("retry"), interceptor.NewRetry)
		register.Interceptor(id("batching"), interceptor.NewBatching)

		register.Storage(id("raw"), storage.NewRaw)
		register.Storage(id("rollup"), storage.NewRollup)

		register.RollupOperation(id("max"), rollup.NewMax)
		register.RollupOperation(id("min"), rollup.NewMin)
		register.RollupOperation(id("total"), rollup.NewTotal)
		register.RollupOperation(id("count"), rollup.NewCount)
		register.RollupOperation(id("group_count"), rollup.NewGroupCount)

		register.Task(id("ensure_indexes"), task.NewEnsureIndexes)
		register.Task(id("limit_slices"), task.NewLimitSlices)

		pluginconfig.AddHooks()
	})
}

func id(alias string) string {
	canonical := plugin.Resolve(alias)
	if canonical == alias {
		panic("no alias " + alias)
	}
	return canonical
}

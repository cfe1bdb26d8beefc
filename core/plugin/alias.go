// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package plugin

const componentsPath = "github.com/yandex/hvdf/components/"

// aliases is never modified after package initialization.
var aliases = map[string]string{
	// ID factories.
	"time_only":            componentsPath + "idfactory.TimeOnly",
	"source_time_document": componentsPath + "idfactory.SourceTimeDocument",
	// Allocators.
	"periodic":   componentsPath + "allocator.Periodic",
	"no_slicing": componentsPath + "allocator.NoSlicing",
	// Interceptors.
	"retry":    componentsPath + "interceptor.Retry",
	"batching": componentsPath + "interceptor.Batching",
	// Tasks.
	"ensure_indexes": componentsPath + "task.EnsureIndexes",
	"limit_slices":   componentsPath + "task.LimitSlices",
	// Storages.
	"rollup": componentsPath + "storage.Rollup",
	"raw":    componentsPath + "storage.Raw",
	// Rollup operations.
	"max":         componentsPath + "rollup.Max",
	"min":         componentsPath + "rollup.Min",
	"count":       componentsPath + "rollup.Count",
	"total":       componentsPath + "rollup.Total",
	"group_count": componentsPath + "rollup.GroupCount",
}

// Resolve returns canonical identifier for built-in alias, or name itself,
// if it is not an alias. Canonical identifiers are not aliases, so
// Resolve(Resolve(x)) == Resolve(x).
func Resolve(name string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

// Aliases returns copy of built-in alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(aliases))
	for alias, id := range aliases {
		out[alias] = id
	}
	return out
}

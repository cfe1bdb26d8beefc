// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package plugin

import (
	"io"
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/svcerr"
	"github.com/yandex/hvdf/lib/errutil"
)

// Well known plugin document keys.
const (
	TypeKey   = "type"
	ConfigKey = "config"
)

const reasonConstructorMissing = "missing Configuration-View argument constructor"

func NewRegistry() *Registry {
	return &Registry{entries: map[string]*registryEntry{}}
}

// Registry maps canonical plugin identifiers to constructors.
// Registry is goroutine safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	constructor *constructor
	hooks       []config.TypeHook
}

// Register registers plugin constructor under canonical identifier id.
// Passed decode hooks are used by config.View.Decode of views passed to constructor.
// See package doc for type expectations details.
// Register designed to be called in package init func, so it panics if something go wrong.
// Panics if id is empty, or alias, or has been already registered.
func (r *Registry) Register(id string, newPlugin interface{}, hooks ...config.TypeHook) {
	expect(id != "", "empty plugin id")
	_, isAlias := aliases[id]
	expect(!isAlias, "plugin id %q is alias; register canonical id %q instead", id, Resolve(id))
	entry := &registryEntry{newConstructor(newPlugin), hooks}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	expect(!ok, "plugin %q had been already registered", id)
	r.entries[id] = entry
}

// Lookup returns true if plugin has been registered for id.
// Aliases are resolved.
func (r *Registry) Lookup(id string) bool {
	_, ok := r.get(Resolve(id))
	return ok
}

// Registered returns sorted identifiers of all registered plugins.
func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load creates plugin implementing capability interface from plugin document conf.
// Conf should be document with required string type and optional document config.
// Overlay entries, if passed, replace config entries with same keys. Conf is not modified.
// Returned plugin is always capability implementation.
func (r *Registry) Load(capability reflect.Type, conf interface{}, overlayOptional ...map[string]interface{}) (plugin interface{}, err error) {
	expectCapability(capability)
	overlay := getOverlay(overlayOptional)
	doc, err := config.ToDocument(conf)
	if err != nil {
		return nil, svcerr.Wrap(err, svcerr.ConfigTypeMismatch).
			Set(svcerr.ExpectedKey, config.DocumentType.String()).
			Set(svcerr.ActualKey, typeName(conf)).
			Set(svcerr.TypeKey, "").
			Set(svcerr.PluginTypeKey, capability.String())
	}
	view := config.NewView(doc, nil)
	name, err := view.String(TypeKey)
	if err != nil {
		return nil, err.(*svcerr.Error).
			Set(svcerr.TypeKey, name).
			Set(svcerr.PluginTypeKey, capability.String())
	}
	id := Resolve(name)
	opts, err := view.DocumentOr(ConfigKey, nil)
	if err != nil {
		return nil, err.(*svcerr.Error).
			Set(svcerr.TypeKey, id).
			Set(svcerr.PluginTypeKey, capability.String())
	}
	if len(overlay) > 0 {
		opts = opts.Merge(overlay)
	} else {
		// Constructor owns view document.
		opts = opts.Clone()
	}
	return r.New(capability, id, opts)
}

// New creates plugin implementing capability by canonical identifier and
// final options document. New takes ownership of opts.
func (r *Registry) New(capability reflect.Type, id string, opts config.Document) (plugin interface{}, err error) {
	expectCapability(capability)
	fail := func(err *svcerr.Error) error {
		return err.Set(svcerr.TypeKey, id).Set(svcerr.PluginTypeKey, capability.String())
	}
	entry, ok := r.get(id)
	if !ok {
		return nil, fail(svcerr.New(svcerr.PluginClassNotFound))
	}
	zap.L().Debug("Creating plugin",
		zap.String("type", id),
		zap.Stringer("plugin_type", capability),
		zap.Strings("options", opts.Keys()),
	)
	if !entry.constructor.acceptsView() {
		return nil, fail(svcerr.New(svcerr.PluginConstructorMissing).
			Set(svcerr.ReasonKey, reasonConstructorMissing))
	}
	impl := entry.constructor.implType()
	if impl.Kind() != reflect.Interface && !impl.Implements(capability) {
		// Concrete result can't implement capability, so options are not even checked.
		return nil, fail(svcerr.New(svcerr.PluginIncorrectType).
			Set(svcerr.ActualKey, impl.String()))
	}
	view := config.NewView(opts, impl, entry.hooks...)
	plugin, err = entry.constructor.call(view)
	if err != nil {
		closePlugin(plugin)
		return nil, fail(svcerr.Wrap(err, svcerr.PluginError))
	}
	if plugin == nil {
		return nil, fail(svcerr.Wrap(errors.New("plugin constructor returned nil"), svcerr.PluginError))
	}
	if !reflect.TypeOf(plugin).Implements(capability) {
		closePlugin(plugin)
		return nil, fail(svcerr.New(svcerr.PluginIncorrectType).
			Set(svcerr.ActualKey, reflect.TypeOf(plugin).String()))
	}
	return plugin, nil
}

// LoadAll loads every plugin document in confs, passing the same overlay to each.
// If any load fails, all errors are returned joined, and already created plugins
// are closed, if they are io.Closer.
func (r *Registry) LoadAll(capability reflect.Type, confs []interface{}, overlayOptional ...map[string]interface{}) ([]interface{}, error) {
	plugins := make([]interface{}, 0, len(confs))
	var errs error
	for i, conf := range confs {
		plugin, err := r.Load(capability, conf, overlayOptional...)
		if err != nil {
			errs = errutil.Join(errs, errors.WithMessagef(err, "plugin #%d", i))
			continue
		}
		plugins = append(plugins, plugin)
	}
	if errs != nil {
		for _, plugin := range plugins {
			closePlugin(plugin)
		}
		return nil, errs
	}
	return plugins, nil
}

func (r *Registry) get(id string) (*registryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry, ok
}

func closePlugin(plugin interface{}) {
	closer, ok := plugin.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		zap.L().Warn("Rejected plugin close failed", zap.Error(err))
	}
}

func expectCapability(capability reflect.Type) {
	expect(capability != nil && capability.Kind() == reflect.Interface,
		"plugin capability should be interface, but have: %v", capability)
}

func getOverlay(overlayOptional []map[string]interface{}) map[string]interface{} {
	expect(len(overlayOptional) <= 1, "too many overlay params")
	if len(overlayOptional) == 0 {
		return nil
	}
	return overlayOptional[0]
}

func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

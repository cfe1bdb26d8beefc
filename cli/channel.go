// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/plugin"
	"github.com/yandex/hvdf/core/svcerr"
	"github.com/yandex/hvdf/lib/errutil"
	"github.com/yandex/hvdf/lib/monitoring"
)

// Channel config sections.
const (
	idFactorySection    = "id_factory"
	timeSlicingSection  = "time_slicing"
	storageSection      = "storage"
	interceptorsSection = "interceptors"
	tasksSection        = "tasks"
)

// Keys of collaborators injected into plugin options.
const (
	writerKey    = "writer"
	adminKey     = "admin"
	allocatorKey = "allocator"
	idFactoryKey = "id_factory"
)

var knownSections = map[string]bool{
	idFactorySection:    true,
	timeSlicingSection:  true,
	storageSection:      true,
	interceptorsSection: true,
	tasksSection:        true,
}

var (
	pluginsLoaded = monitoring.SharedCounter("hvdf.cli.plugins.loaded")
	pluginsFailed = monitoring.SharedCounter("hvdf.cli.plugins.failed")
)

// channel is loaded channel pipeline. Any plugin may be nil, if its section failed.
type channel struct {
	store        *memStore
	idFactory    core.IDFactory
	allocator    core.Allocator
	storage      core.Storage
	interceptors []core.Interceptor
	tasks        []core.Task
}

func loadChannel(doc config.Document) (*channel, *Report) {
	report := &Report{}
	ch := &channel{store: newMemStore()}
	for _, key := range doc.Keys() {
		if !knownSections[key] {
			zap.L().Warn("Unknown channel config section is ignored", zap.String("section", key))
		}
	}
	view := config.NewView(doc, nil)

	ch.idFactory, _ = loadSection[core.IDFactory](report, view, idFactorySection, false, nil)
	ch.allocator, _ = loadSection[core.Allocator](report, view, timeSlicingSection, false, nil)

	storageOverlay := map[string]interface{}{writerKey: ch.store}
	if ch.allocator != nil {
		storageOverlay[allocatorKey] = ch.allocator
	}
	if ch.idFactory != nil {
		storageOverlay[idFactoryKey] = ch.idFactory
	}
	ch.storage, _ = loadSection[core.Storage](report, view, storageSection, true, storageOverlay)

	ch.interceptors = loadSequence[core.Interceptor](report, view, interceptorsSection, nil)
	ch.tasks = loadSequence[core.Task](report, view, tasksSection, map[string]interface{}{adminKey: ch.store})
	return ch, report
}

func loadSection[T any](report *Report, view *config.View, section string, required bool, overlay map[string]interface{}) (T, bool) {
	var zero T
	if !view.Has(section) {
		if required {
			report.add(section, nil, nil, svcerr.New(svcerr.ConfigMissingRequired).
				Set(svcerr.ConfigKey, section).
				Set(svcerr.ExpectedKey, config.DocumentType.String()))
		}
		return zero, false
	}
	conf, _ := view.Get(section, config.Any)
	return load[T](report, section, conf, overlay)
}

func loadSequence[T any](report *Report, view *config.View, section string, overlay map[string]interface{}) []T {
	confs, err := view.SequenceOr(section, nil)
	if err != nil {
		report.add(section, nil, nil, err)
		return nil
	}
	var plugins []T
	for i, conf := range confs {
		p, ok := load[T](report, fmt.Sprintf("%s[%d]", section, i), conf, overlay)
		if ok {
			plugins = append(plugins, p)
		}
	}
	return plugins
}

func load[T any](report *Report, section string, conf interface{}, overlay map[string]interface{}) (T, bool) {
	var overlayOptional []map[string]interface{}
	if len(overlay) > 0 {
		overlayOptional = append(overlayOptional, overlay)
	}
	p, err := plugin.LoadAs[T](conf, overlayOptional...)
	report.add(section, conf, p, err)
	if err != nil {
		pluginsFailed.Inc()
		zap.L().Debug("Plugin load failed", zap.String("section", section), zap.Error(err))
		return p, false
	}
	pluginsLoaded.Inc()
	return p, true
}

// pusher returns head of interceptors chain, that ends with storage.
func (ch *channel) pusher() core.Pusher {
	var next core.Pusher = core.PusherFunc(func(ctx context.Context, samples []core.Sample) error {
		return ch.storage.Push(ctx, samples, nil)
	})
	for i := len(ch.interceptors) - 1; i >= 0; i-- {
		interceptor, tail := ch.interceptors[i], next
		next = core.PusherFunc(func(ctx context.Context, samples []core.Sample) error {
			return interceptor.Push(ctx, samples, tail)
		})
	}
	return next
}

const probeSource = "hvdf-probe"

// dryRun pushes probe sample through channel, flushes storage and runs every task once.
// Loaded channel is expected.
func (ch *channel) dryRun(ctx context.Context) *DryRunReport {
	report := &DryRunReport{Samples: 1}
	probe := core.Sample{
		Source:    probeSource,
		Timestamp: time.Now(),
		Data:      config.Document{},
	}
	err := ch.pusher().Push(ctx, []core.Sample{probe})
	if err == nil {
		err = ch.storage.Flush(ctx)
	}
	for _, task := range ch.tasks {
		if ctx.Err() != nil {
			err = errutil.Join(err, ctx.Err())
			break
		}
		taskErr := task.Run(ctx)
		if taskErr != nil {
			err = errutil.Join(err, errors.WithMessage(taskErr, typeName(task)))
		}
	}
	report.Documents = ch.store.Documents()
	report.Collections = ch.store.collectionNames("")
	if err != nil {
		report.Error = err.Error()
	}
	zap.L().Info("Dry run finished",
		zap.Int64("documents", report.Documents),
		zap.Strings("collections", report.Collections),
		zap.Error(err),
	)
	return report
}

// Close closes loaded plugins, that are io.Closer.
func (ch *channel) Close() error {
	var plugins []interface{}
	plugins = append(plugins, ch.idFactory, ch.allocator, ch.storage)
	for _, p := range ch.interceptors {
		plugins = append(plugins, p)
	}
	for _, p := range ch.tasks {
		plugins = append(plugins, p)
	}
	var err error
	for _, p := range plugins {
		if closer, ok := p.(io.Closer); ok {
			err = errutil.Join(err, closer.Close())
		}
	}
	return err
}

func typeName(v interface{}) string {
	if v == nil {
		return ""
	}
	return reflect.TypeOf(v).String()
}

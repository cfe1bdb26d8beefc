// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package ginkgoutil contains helpers for ginkgo suites and zap log assertions.
package ginkgoutil

import (
	"testing"

	"github.com/onsi/ginkgo"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/format"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yandex/hvdf/lib/zaputil"
)

func SetupSuite() {
	format.UseStringerRepresentation = true // Otherwise error stacks have binary format.
	ReplaceGlobalLogger()
	gomega.RegisterFailHandler(ginkgo.Fail)
}

func RunSuite(t *testing.T, description string) {
	SetupSuite()
	ginkgo.RunSpecs(t, description)
}

// ReplaceGlobalLogger replaces global logger with one writing to GinkgoWriter,
// so logs are shown only for failed specs.
func ReplaceGlobalLogger() *zap.Logger {
	log := NewLogger()
	zap.ReplaceGlobals(log)
	zap.RedirectStdLog(log)
	return log
}

func NewLogger() *zap.Logger {
	return zaputil.NewConsoleLogger(zap.DebugLevel, zapcore.AddSync(ginkgo.GinkgoWriter))
}

// NewObservedLogger returns logger, which entries can be inspected in tests.
func NewObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// ObserveGlobalLogger replaces global logger with observed one.
// Call restore to return previous global logger.
func ObserveGlobalLogger() (logs *observer.ObservedLogs, restore func()) {
	log, logs := NewObservedLogger()
	return logs, zap.ReplaceGlobals(log)
}

// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package cli implements hvdf channel configuration checker.
// It loads every plugin of channel config, reports which config fragments
// failed, and optionally pushes probe sample through the loaded pipeline.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yandex/hvdf/core/config"
	coreimport "github.com/yandex/hvdf/core/import"
	"github.com/yandex/hvdf/lib/zaputil"
)

const Version = "0.1.0"
const defaultConfigFile = "hvdf"

var configSearchDirs = []string{"./", "./config", "/etc/hvdf"}

type options struct {
	File    string
	JSON    bool
	Aliases bool
	Expvar  bool
	DryRun  bool
	Debug   bool
}

func Run() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of hvdf: hvdf [<config_filename>]\n"+
			"<config_filename> is './%s.(yaml|json|toml|hcl|...)' by default\n", defaultConfigFile)
		flag.PrintDefaults()
	}
	var opts options
	flag.BoolVar(&opts.JSON, "json", false, "print report as JSON")
	flag.BoolVar(&opts.Aliases, "aliases", false, "print plugin aliases and exit")
	flag.BoolVar(&opts.Expvar, "expvar", false, "print monitoring variables after report")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "push probe sample through loaded channel and run tasks once")
	flag.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	flag.Parse()
	if flag.NArg() > 0 {
		opts.File = flag.Arg(0)
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	log := zaputil.NewConsoleLogger(level, zapcore.Lock(os.Stderr))
	zap.ReplaceGlobals(log)
	zap.RedirectStdLog(log)
	log.Info("hvdf started", zap.String("version", Version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, afero.NewOsFs(), opts, os.Stdout)
	stop()
	_ = log.Sync()
	os.Exit(code)
}

// run returns process exit code.
func run(ctx context.Context, fs afero.Fs, opts options, out io.Writer) int {
	coreimport.Import()
	if opts.Aliases {
		if err := writeAliases(out); err != nil {
			zap.L().Error("Aliases print failed", zap.Error(err))
			return 1
		}
		return 0
	}

	doc, file, err := readConfig(fs, opts.File)
	if err != nil {
		zap.L().Error("Config read failed", zap.Error(err))
		return 1
	}
	zap.L().Info("Config read", zap.String("file", file))

	ch, report := loadChannel(doc)
	report.Config = file
	if opts.DryRun && !report.Failed() {
		report.DryRun = ch.dryRun(ctx)
	}
	if err := ch.Close(); err != nil {
		zap.L().Warn("Channel close failed", zap.Error(err))
	}

	if opts.JSON {
		err = writeJSONReport(out, report)
	} else {
		err = writeTextReport(out, report)
	}
	if err == nil && opts.Expvar {
		err = writeCounters(out)
	}
	if err != nil {
		zap.L().Error("Report write failed", zap.Error(err))
		return 1
	}
	if report.Failed() {
		zap.L().Error("Channel config is invalid", zap.Int("failed", report.FailedCount()))
		return 1
	}
	return 0
}

// readConfig reads channel config document. HCL files are parsed by
// config.ParseHCL, all other formats are read by viper. Note that viper
// lowercases keys.
func readConfig(fs afero.Fs, file string) (config.Document, string, error) {
	if file == "" {
		file = findHCL(fs)
	}
	if filepath.Ext(file) == ".hcl" {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, file, errors.WithStack(err)
		}
		doc, err := config.ParseHCL(data, file)
		return doc, file, err
	}
	v := newViper(fs)
	if file != "" {
		v.SetConfigFile(file)
	}
	err := v.ReadInConfig()
	if err != nil {
		return nil, v.ConfigFileUsed(), errors.WithStack(err)
	}
	doc, err := config.Normalize(v.AllSettings())
	if err != nil {
		return nil, v.ConfigFileUsed(), err
	}
	return doc.(config.Document), v.ConfigFileUsed(), nil
}

func newViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(defaultConfigFile)
	for _, dir := range configSearchDirs {
		v.AddConfigPath(dir)
	}
	return v
}

func findHCL(fs afero.Fs) string {
	for _, dir := range configSearchDirs {
		path := filepath.Join(dir, defaultConfigFile+".hcl")
		if ok, _ := afero.Exists(fs, path); ok {
			return path
		}
	}
	return ""
}

// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/plugin"
	"github.com/yandex/hvdf/core/svcerr"
)

type Report struct {
	Config   string          `json:"config"`
	Sections []SectionReport `json:"sections"`
	DryRun   *DryRunReport   `json:"dry_run,omitempty"`
}

// SectionReport is result of one plugin document load.
type SectionReport struct {
	Section string `json:"section"`
	// Type is plugin type as written in config.
	Type   string                 `json:"type,omitempty"`
	Impl   string                 `json:"impl,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Kind   string                 `json:"kind,omitempty"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

type DryRunReport struct {
	Samples     int      `json:"samples"`
	Documents   int64    `json:"documents"`
	Collections []string `json:"collections,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (r *Report) add(section string, conf interface{}, p interface{}, err error) {
	sr := SectionReport{Section: section, Impl: typeName(p)}
	if typ, ok := conf.(string); ok {
		sr.Type = typ
	} else if doc, err := config.ToDocument(conf); err == nil {
		sr.Type, _ = doc[plugin.TypeKey].(string)
	}
	if err != nil {
		sr.Impl = ""
		sr.Error = err.Error()
		var se *svcerr.Error
		if errors.As(err, &se) {
			sr.Kind = se.Kind().String()
			sr.Fields = se.Fields()
		}
	}
	r.Sections = append(r.Sections, sr)
}

func (r *Report) FailedCount() int {
	var n int
	for _, s := range r.Sections {
		if s.Error != "" {
			n++
		}
	}
	return n
}

func (r *Report) Failed() bool {
	return r.FailedCount() > 0 || r.DryRun != nil && r.DryRun.Error != ""
}

func writeJSONReport(w io.Writer, r *Report) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(r))
}

func writeTextReport(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "config:\t%s\n", r.Config)
	for _, s := range r.Sections {
		if s.Error == "" {
			fmt.Fprintf(tw, "OK\t%s\t%s\t%s\n", s.Section, s.Type, s.Impl)
			continue
		}
		fmt.Fprintf(tw, "FAIL\t%s\t%s\t%s\n", s.Section, s.Type, s.Error)
	}
	if d := r.DryRun; d != nil {
		status := "OK"
		if d.Error != "" {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\tdry run\t%d documents\t%s\n", status, d.Documents, d.Error)
	}
	return errors.WithStack(tw.Flush())
}

// writeAliases writes registered plugins with their aliases. Plugins
// registered without alias are written with "-".
func writeAliases(w io.Writer) error {
	byID := map[string]string{}
	for alias, id := range plugin.Aliases() {
		byID[id] = alias
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, id := range plugin.Registered() {
		alias, ok := byID[id]
		if !ok {
			alias = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", alias, id)
	}
	return errors.WithStack(tw.Flush())
}

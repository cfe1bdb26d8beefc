// Copyright (c) 2018 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package zaputil

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// NewStackExtractCore wraps core, so stack traces of logged errors are moved
// from fields to zapcore.Entry.Stack. Both zap.Error fields and zap.Object
// fields with structured plugin errors are handled.
// Console encoder prints Entry.Stack as is, so traces become readable.
// Check of wrapped core is never called: only its level is respected.
func NewStackExtractCore(c zapcore.Core) zapcore.Core {
	return &stackExtractCore{Core: c, stacks: newStackBuffer()}
}

type stackedErr interface {
	error
	StackTrace() errors.StackTrace
}

type stackExtractCore struct {
	zapcore.Core
	// stacks extracted from fields passed to With.
	stacks stackBuffer
}

func (c *stackExtractCore) With(fields []zapcore.Field) zapcore.Core {
	stacks := c.stacks.clone()
	return &stackExtractCore{
		Core:   c.Core.With(stacks.extract(fields)),
		stacks: stacks,
	}
}

func (c *stackExtractCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}
	return ce.AddCore(ent, c)
}

func (c *stackExtractCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if c.stacks.Len() == 0 && !anyStacked(fields) {
		return c.Core.Write(ent, fields)
	}
	stacks := c.stacks.clone()
	defer stacks.Free()
	fields = stacks.extract(fields)
	switch {
	case ent.Stack == "":
		ent.Stack = stacks.String()
	case stacks.Len() > 0:
		ent.Stack += "\n" + stacks.String()
	}
	return c.Core.Write(ent, fields)
}

func stackedOf(f zapcore.Field) (stackedErr, bool) {
	switch f.Type {
	case zapcore.ErrorType, zapcore.ObjectMarshalerType:
		err, ok := f.Interface.(stackedErr)
		return err, ok
	}
	return nil, false
}

func anyStacked(fields []zapcore.Field) bool {
	for _, f := range fields {
		if _, ok := stackedOf(f); ok {
			return true
		}
	}
	return false
}

// withoutStack returns field that logs err without its stack trace.
// Structured errors are logged as objects, wrapping errors as their
// cause, and others as message.
func withoutStack(key string, err stackedErr) zapcore.Field {
	if m, ok := err.(zapcore.ObjectMarshaler); ok {
		return zap.Object(key, m)
	}
	if c, ok := err.(interface{ Cause() error }); ok && c.Cause() != nil {
		return zap.NamedError(key, c.Cause())
	}
	return zap.String(key, err.Error())
}

type stackBuffer struct{ *buffer.Buffer }

var stackPool = buffer.NewPool()

func newStackBuffer() stackBuffer { return stackBuffer{stackPool.Get()} }

func (b stackBuffer) clone() stackBuffer {
	out := newStackBuffer()
	_, _ = out.Write(b.Bytes())
	return out
}

// extract appends stacks of errors in fields to b, and returns fields with
// errors replaced by stackless ones. Passed slice is not modified.
func (b stackBuffer) extract(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		err, ok := stackedOf(f)
		if !ok {
			continue
		}
		if out == nil {
			out = append([]zapcore.Field(nil), fields...)
		}
		out[i] = withoutStack(f.Key, err)
		b.appendStack(f.Key, err.StackTrace())
	}
	if out == nil {
		return fields
	}
	return out
}

func (b stackBuffer) appendStack(key string, stack errors.StackTrace) {
	if b.Len() > 0 {
		b.AppendByte('\n')
	}
	b.AppendString(key)
	b.AppendString(" stacktrace:")
	stack.Format(fmtState{b}, 'v')
}

func (b stackBuffer) WriteString(s string) (int, error) {
	b.AppendString(s)
	return len(s), nil
}

// fmtState makes errors.StackTrace print file and line of every frame.
type fmtState struct{ stackBuffer }

var _ fmt.State = fmtState{}

func (fmtState) Flag(c int) bool                { return c == '+' }
func (fmtState) Width() (wid int, ok bool)      { return 0, false }
func (fmtState) Precision() (prec int, ok bool) { return 0, false }

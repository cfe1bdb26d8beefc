// Copyright (c) 2016 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package config

import (
	"encoding"
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/c2h5oh/datasize"
	"github.com/facebookgo/stack"
	"github.com/facebookgo/stackerr"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/lib/confutil"
)

var InvalidURLError = errors.New("string is not valid URL")

var (
	urlPtrType   = reflect.TypeOf(&url.URL{})
	urlType      = reflect.TypeOf(url.URL{})
	dataSizeType = reflect.TypeOf(datasize.B)
)

// StringToURLHook converts string to url.URL or *url.URL
func StringToURLHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	if t != urlPtrType && t != urlType {
		return data, nil
	}
	str := data.(string)

	if !govalidator.IsURL(str) { // checks more than url.Parse
		return nil, stackerr.Wrap(InvalidURLError)
	}
	urlPtr, err := url.Parse(str)
	if err != nil {
		return nil, stackerr.Wrap(err)
	}

	if t == urlType {
		return *urlPtr, nil
	}
	return urlPtr, nil
}

// StringToDataSizeHook converts string to datasize.ByteSize
func StringToDataSizeHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	if t != dataSizeType {
		return data, nil
	}
	var size datasize.ByteSize
	err := size.UnmarshalText([]byte(data.(string)))
	if err != nil {
		return nil, stackerr.Wrap(err)
	}
	return size, nil
}

// TextUnmarshallerHook decodes strings into encoding.TextUnmarshaler implementations.
func TextUnmarshallerHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	if t == dataSizeType {
		// Handled by StringToDataSizeHook with better errors.
		return data, nil
	}
	if t.Implements(textUnmarshalerType) {
		val := reflect.Zero(t)
		if t.Kind() == reflect.Ptr {
			val = reflect.New(t.Elem())
		}
		err := unmarshalText(val, data.(string))
		return val.Interface(), err
	}
	if reflect.PtrTo(t).Implements(textUnmarshalerType) {
		val := reflect.New(t)
		err := unmarshalText(val, data.(string))
		return val.Elem().Interface(), err
	}
	return data, nil
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

func unmarshalText(v reflect.Value, text string) error {
	err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text))
	if err != nil {
		return stackerr.Wrap(err)
	}
	return nil
}

// TagResolveHook resolves ${tag:name} variables in strings, for example ${env:HOME}.
func TagResolveHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	res, err := confutil.ResolveCustomTags(data.(string), t)
	if errors.Is(err, confutil.ErrNoTagsFound) {
		return data, nil
	}
	if err != nil {
		return nil, stackerr.Wrap(err)
	}
	return res, nil
}

// DebugHook used to debug config decode. Logs nested decode steps on debug level.
func DebugHook(f reflect.Type, t reflect.Type, data interface{}) (p interface{}, err error) {
	p, err = data, nil
	log := zap.L()
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}
	var decodeCallers int
	for _, caller := range stack.Callers(2) {
		if caller.Name == "(*Decoder).decode" {
			decodeCallers++
		}
	}
	log.Debug(strings.Repeat("    ", decodeCallers)+"Decoding",
		zap.Stringer("to", t),
		zap.Stringer("from", f),
		zap.Reflect("data", data),
	)
	return
}

// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package config

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

// Document is untyped options document: string keys to scalars, nested
// documents or sequences of values.
type Document map[string]interface{}

// ToDocument converts untyped data to Document. Nested maps and slices
// are converted too, so YAML decoded map[interface{}]interface{} values
// become Documents.
func ToDocument(data interface{}) (Document, error) {
	switch d := data.(type) {
	case nil:
		return nil, errors.New("document expected, but have nil")
	case Document:
		return d, nil
	case map[string]interface{}:
		return Document(d), nil
	case map[interface{}]interface{}:
		out := make(Document, len(d))
		for key, val := range d {
			strKey, ok := key.(string)
			if !ok {
				return nil, errors.Errorf("unexpected key type %T: %v", key, key)
			}
			out[strKey] = val
		}
		return out, nil
	}
	return nil, errors.Errorf("unexpected config type %T: should be map[string or interface{}]interface{}", data)
}

// Normalize returns deep copy of data, where every nested map is Document,
// and every nested slice is []interface{}.
func Normalize(data interface{}) (interface{}, error) {
	switch d := data.(type) {
	case Document, map[string]interface{}, map[interface{}]interface{}:
		doc, err := ToDocument(d)
		if err != nil {
			return nil, err
		}
		out := make(Document, len(doc))
		for k, v := range doc {
			out[k], err = Normalize(v)
			if err != nil {
				return nil, errors.WithMessagef(err, "key %q", k)
			}
		}
		return out, nil
	case []interface{}:
		return normalizeSlice(reflect.ValueOf(d))
	}
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Slice && val.Type().Elem().Kind() != reflect.Uint8 {
		return normalizeSlice(val)
	}
	return data, nil
}

func normalizeSlice(val reflect.Value) ([]interface{}, error) {
	out := make([]interface{}, val.Len())
	for i := range out {
		var err error
		out[i], err = Normalize(val.Index(i).Interface())
		if err != nil {
			return nil, errors.WithMessagef(err, "index %v", i)
		}
	}
	return out, nil
}

// Clone returns shallow copy. Clone of nil document is empty document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns new document, that contains entries of d, replaced by overlay
// entries with same keys. Neither d nor overlay are modified.
// Merge is shallow: nested documents are replaced, not merged.
func (d Document) Merge(overlay map[string]interface{}) Document {
	out := d.Clone()
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Keys returns sorted keys.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

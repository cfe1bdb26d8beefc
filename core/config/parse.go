// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package config

import (
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v2"
)

// ParseYAML parses YAML document. Unlike viper, keys case is preserved.
func ParseYAML(data []byte) (Document, error) {
	var raw map[interface{}]interface{}
	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "yaml parse failed")
	}
	return normalizeRoot(raw)
}

// ParseHCL parses HCL document. Only attributes are supported at top level,
// plugin documents are written as objects:
//
//	storage = {
//	  type   = "rollup"
//	  config = { rollup_ops = [{ type = "max", config = { field = "cpu" } }] }
//	}
func ParseHCL(data []byte, filename string) (Document, error) {
	file, diags := hclsyntax.ParseConfig(data, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, errors.WithStack(diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.WithStack(diags)
	}
	doc := make(Document, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.WithStack(diags)
		}
		converted, err := ctyToGo(val)
		if err != nil {
			return nil, errors.WithMessagef(err, "attribute %q", name)
		}
		doc[name] = converted
	}
	return doc, nil
}

func normalizeRoot(raw map[interface{}]interface{}) (Document, error) {
	if raw == nil {
		return Document{}, nil
	}
	normalized, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	return normalized.(Document), nil
}

func ctyToGo(val cty.Value) (interface{}, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, errors.New("value is unknown")
	}
	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Bool:
		return val.True(), nil
	case t == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case t.IsObjectType() || t.IsMapType():
		doc := Document{}
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, errors.WithMessagef(err, "key %q", k.AsString())
			}
			doc[k.AsString()] = converted
		}
		return doc, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		out := make([]interface{}, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, errors.WithMessagef(err, "index %v", len(out))
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported value type %s", t.FriendlyName())
}

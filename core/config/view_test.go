// Copyright (c) 2024 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package config

import (
	"reflect"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/yandex/hvdf/core/svcerr"
	"github.com/yandex/hvdf/lib/ginkgoutil"
)

var _ = Describe("view", func() {
	var view *View
	BeforeEach(func() {
		view = NewView(Document{
			"str":      "value",
			"int":      3,
			"int8":     int8(-4),
			"uint":     uint32(5),
			"float":    1.5,
			"intFloat": float64(60000),
			"bool":     true,
			"doc":      map[string]interface{}{"nested": 1},
			"yamlDoc":  map[interface{}]interface{}{"nested": 2},
			"seq":      []interface{}{1, "2"},
			"strings":  []string{"a", "b"},
			"nil":      nil,
		}, nil)
	})

	DescribeTable("get coerced",
		func(key string, t Type, expected interface{}) {
			val, err := view.Get(key, t)
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal(expected))
		},
		Entry("string", "str", String, "value"),
		Entry("int", "int", Int, int64(3)),
		Entry("int8", "int8", Int, int64(-4)),
		Entry("uint", "uint", Int, int64(5)),
		Entry("integral float as int", "intFloat", Int, int64(60000)),
		Entry("float", "float", Float, 1.5),
		Entry("int as float", "int", Float, float64(3)),
		Entry("bool", "bool", Bool, true),
		Entry("doc", "doc", DocumentType, Document{"nested": 1}),
		Entry("yaml doc", "yamlDoc", DocumentType, Document{"nested": 2}),
		Entry("seq", "seq", Sequence, []interface{}{1, "2"}),
		Entry("typed seq", "strings", Sequence, []interface{}{"a", "b"}),
		Entry("any", "str", Any, "value"),
	)

	DescribeTable("type mismatch",
		func(key string, t Type) {
			_, err := view.Get(key, t)
			se := ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
			ginkgoutil.ExpectField(se, svcerr.ConfigKey, key)
			ginkgoutil.ExpectField(se, svcerr.ExpectedKey, t.String())
			_, err = view.GetOr(key, t, "default")
			ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
		},
		Entry("string is not int", "str", Int),
		Entry("no string to number parsing", "str", Float),
		Entry("int is not string", "int", String),
		Entry("fractional float is not int", "float", Int),
		Entry("int is not bool", "int", Bool),
		Entry("scalar is not doc", "str", DocumentType),
		Entry("nil is not doc", "nil", DocumentType),
		Entry("doc is not seq", "doc", Sequence),
		Entry("string is not seq", "str", Sequence),
	)

	It("any nil", func() {
		val, err := view.Get("nil", Any)
		Expect(err).NotTo(HaveOccurred())
		Expect(val).To(BeNil())
	})

	It("missing required", func() {
		_, err := view.Get("missing", String)
		ginkgoutil.ExpectKind(err, svcerr.ConfigMissingRequired)
		_, err = view.Int("missing")
		ginkgoutil.ExpectKind(err, svcerr.ConfigMissingRequired)
	})

	It("defaults", func() {
		Expect(view.StringOr("missing", "def")).To(Equal("def"))
		Expect(view.IntOr("missing", 7)).To(Equal(int64(7)))
		Expect(view.FloatOr("missing", 0.5)).To(Equal(0.5))
		Expect(view.BoolOr("missing", true)).To(BeTrue())
		Expect(view.DocumentOr("missing", nil)).To(Equal(Document{}))
		Expect(view.SequenceOr("missing", nil)).To(BeNil())
		Expect(view.IntOr("int", 7)).To(Equal(int64(3)))
	})

	It("typed getters", func() {
		Expect(view.String("str")).To(Equal("value"))
		Expect(view.Int("int")).To(Equal(int64(3)))
		Expect(view.Float("float")).To(Equal(1.5))
		Expect(view.Bool("bool")).To(BeTrue())
		Expect(view.Document("doc")).To(Equal(Document{"nested": 1}))
		Expect(view.Sequence("seq")).To(HaveLen(2))
		Expect(view.Has("str")).To(BeTrue())
		Expect(view.Has("missing")).To(BeFalse())
	})

	It("put all overlays", func() {
		view.PutAll(map[string]interface{}{"str": "overlay", "new": 1})
		Expect(view.String("str")).To(Equal("overlay"))
		Expect(view.Int("new")).To(Equal(int64(1)))
		Expect(view.Int("int")).To(Equal(int64(3)))
	})

	It("nil document is empty", func() {
		v := NewView(nil, nil)
		Expect(v.Keys()).To(BeEmpty())
		Expect(v.Impl()).To(BeNil())
		v.PutAll(map[string]interface{}{"a": 1})
		Expect(v.Keys()).To(Equal([]string{"a"}))
	})

	Context("injected", func() {
		type host interface{ Name() string }
		It("ok", func() {
			v := NewView(Document{"host": testHost{}}, nil)
			h, err := Injected[host](v, "host")
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Name()).To(Equal("test"))
		})
		It("missing", func() {
			_, err := Injected[host](NewView(nil, nil), "host")
			ginkgoutil.ExpectKind(err, svcerr.ConfigMissingRequired)
			h, err := InjectedOr[host](NewView(nil, nil), "host", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(BeNil())
		})
		It("mismatch", func() {
			_, err := Injected[host](NewView(Document{"host": "str"}, nil), "host")
			ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
		})
	})

	Context("decode", func() {
		type conf struct {
			Attempts int    `config:"attempts" validate:"min=1"`
			Name     string `config:"name"`
		}
		It("ok", func() {
			v := NewView(Document{"attempts": 3, "name": "x"}, reflect.TypeOf(testHost{}))
			var c conf
			Expect(v.Decode(&c)).To(Succeed())
			Expect(c).To(Equal(conf{3, "x"}))
		})
		It("unused injected object", func() {
			v := NewView(Document{"attempts": 3, "writer": &testHost{}}, nil)
			var c conf
			Expect(v.Decode(&c)).To(Succeed())
			Expect(c.Attempts).To(Equal(3))
		})
		It("unused option", func() {
			var c conf
			err := NewView(Document{"attempts": 3, "atempts": 4, "writer": &testHost{}}, nil).Decode(&c)
			ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
			Expect(err.Error()).To(ContainSubstring("invalid keys: atempts"))
			Expect(err.Error()).NotTo(ContainSubstring("writer"))
		})
		It("unused nested option", func() {
			type nested struct {
				Retry conf `config:"retry"`
			}
			var c nested
			err := NewView(Document{"retry": Document{"attempts": 3, "writer": "w"}}, nil).Decode(&c)
			ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
			Expect(err.Error()).To(ContainSubstring("retry.writer"))
		})
		It("invalid", func() {
			var c conf
			err := NewView(Document{"attempts": 0}, nil).Decode(&c)
			ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
		})
		It("wrong type", func() {
			var c conf
			err := NewView(Document{"attempts": "many"}, nil).Decode(&c)
			ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
		})
		It("implementation hooks", func() {
			hook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
				if f.Kind() == reflect.String && t.Kind() == reflect.Int {
					return len(data.(string)), nil
				}
				return data, nil
			}
			var c conf
			v := NewView(Document{"attempts": "four"}, reflect.TypeOf(testHost{}), hook)
			Expect(v.Decode(&c)).To(Succeed())
			Expect(c.Attempts).To(Equal(4))
		})
	})
})

type testHost struct{}

func (testHost) Name() string { return "test" }

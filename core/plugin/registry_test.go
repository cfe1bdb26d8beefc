// Copyright (c) 2016 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package plugin

import (
	"io"
	"reflect"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/svcerr"
	"github.com/yandex/hvdf/lib/errutil"
	"github.com/yandex/hvdf/lib/ginkgoutil"
)

var _ = Describe("registry", func() {
	var r *Registry
	BeforeEach(func() { r = NewRegistry() })

	It("register id collision panics", func() {
		r.ptestRegister(ptestNew)
		defer recoverExpectationFail()
		r.ptestRegister(ptestNew)
	})

	It("register empty id panics", func() {
		defer recoverExpectationFail()
		r.Register("", ptestNew)
	})

	It("register alias panics", func() {
		defer recoverExpectationFail()
		r.Register("retry", ptestNew)
	})

	It("register not constructor panics", func() {
		defer recoverExpectationFail()
		r.Register(ptestPluginID, "not a func")
	})

	It("lookup", func() {
		r.ptestRegister(ptestNew)
		Expect(r.Lookup(ptestPluginID)).To(BeTrue())
		Expect(r.Lookup("unknown")).To(BeFalse())
		Expect(r.Lookup("")).To(BeFalse())
	})

	It("registered", func() {
		r.Register("b", ptestNew)
		r.Register("a", ptestNew)
		Expect(r.Registered()).To(Equal([]string{"a", "b"}))
	})

	It("not interface capability panics", func() {
		defer recoverExpectationFail()
		r.Load(reflect.TypeOf(0), config.Document{"type": "x"})
	})

	It("too many overlays panics", func() {
		r.ptestRegister(ptestNew)
		defer recoverExpectationFail()
		r.Load(ptestType(), config.Document{"type": ptestPluginID}, nil, nil)
	})
})

var _ = Describe("load", func() {
	var r *Registry
	BeforeEach(func() {
		r = NewRegistry()
		r.ptestRegister(ptestNewErr)
	})

	It("view over config", func() {
		p := r.ptestLoad(config.Document{
			"type":   ptestPluginID,
			"config": map[string]interface{}{"attempts": 3},
		})
		Expect(p.view.Int("attempts")).To(Equal(int64(3)))
		Expect(p.view.Impl()).To(Equal(reflect.TypeOf(&ptestImpl{})))
	})

	It("yaml document", func() {
		p := r.ptestLoad(map[interface{}]interface{}{
			"type":   ptestPluginID,
			"config": map[interface{}]interface{}{"attempts": 3},
		})
		Expect(p.view.Int("attempts")).To(Equal(int64(3)))
	})

	It("config absent is empty document", func() {
		p := r.ptestLoad(config.Document{"type": ptestPluginID})
		Expect(p.view.Keys()).To(BeEmpty())
	})

	It("overlay wins", func() {
		conf := config.Document{
			"type":   ptestPluginID,
			"config": config.Document{"window_ms": 1000, "kept": "x"},
		}
		p := r.ptestLoad(conf, map[string]interface{}{"window_ms": 60000, "timezone": "UTC"})
		Expect(p.view.Int("window_ms")).To(Equal(int64(60000)))
		Expect(p.view.String("timezone")).To(Equal("UTC"))
		Expect(p.view.String("kept")).To(Equal("x"))
		By("caller document is not modified")
		Expect(conf["config"]).To(Equal(config.Document{"window_ms": 1000, "kept": "x"}))
	})

	It("overlay into absent config", func() {
		p := r.ptestLoad(config.Document{"type": ptestPluginID}, map[string]interface{}{"writer": "injected"})
		Expect(p.view.String("writer")).To(Equal("injected"))
	})

	It("empty overlay equals no overlay", func() {
		conf := config.Document{"type": ptestPluginID, "config": config.Document{"a": 1}}
		withNil := r.ptestLoad(conf, nil)
		withEmpty := r.ptestLoad(conf, map[string]interface{}{})
		without := r.ptestLoad(conf)
		Expect(withNil.view.Raw()).To(Equal(without.view.Raw()))
		Expect(withEmpty.view.Raw()).To(Equal(without.view.Raw()))
	})

	It("views do not share document", func() {
		conf := config.Document{"type": ptestPluginID, "config": config.Document{"a": 1}}
		p1 := r.ptestLoad(conf)
		p2 := r.ptestLoad(conf)
		p1.view.PutAll(map[string]interface{}{"a": 2})
		Expect(p2.view.Int("a")).To(Equal(int64(1)))
		Expect(conf["config"]).To(Equal(config.Document{"a": 1}))
	})

	It("decode hooks are passed to view", func() {
		r := NewRegistry()
		hook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
			if f.Kind() == reflect.String && t.Kind() == reflect.Int {
				return len(data.(string)), nil
			}
			return data, nil
		}
		r.ptestRegister(ptestNew, hook)
		p := r.ptestLoad(config.Document{"type": ptestPluginID, "config": config.Document{"n": "four"}})
		var conf struct {
			N int `config:"n"`
		}
		Expect(p.view.Decode(&conf)).To(Succeed())
		Expect(conf.N).To(Equal(4))
	})

	Context("resolver errors", func() {
		It("type absent", func() {
			_, err := r.Load(ptestType(), config.Document{"config": config.Document{}})
			se := ginkgoutil.ExpectKind(err, svcerr.ConfigMissingRequired)
			ginkgoutil.ExpectField(se, svcerr.ConfigKey, TypeKey)
			ginkgoutil.ExpectField(se, svcerr.PluginTypeKey, ptestType().String())
		})
		It("type is not string", func() {
			_, err := r.Load(ptestType(), config.Document{"type": 1})
			ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
		})
		It("config is not document", func() {
			_, err := r.Load(ptestType(), config.Document{"type": ptestPluginID, "config": "str"})
			se := ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
			ginkgoutil.ExpectField(se, svcerr.ConfigKey, ConfigKey)
			ginkgoutil.ExpectField(se, svcerr.TypeKey, ptestPluginID)
		})
		DescribeTable("conf is not document",
			func(conf interface{}) {
				_, err := r.Load(ptestType(), conf)
				se := ginkgoutil.ExpectKind(err, svcerr.ConfigTypeMismatch)
				ginkgoutil.ExpectField(se, svcerr.PluginTypeKey, ptestType().String())
			},
			Entry("nil", nil),
			Entry("string", "retry"),
			Entry("slice", []interface{}{"retry"}),
			Entry("not string keys", map[interface{}]interface{}{1: "retry"}),
		)
	})

	Context("invoker errors", func() {
		It("class not found", func() {
			_, err := r.Load(ptestType(), config.Document{"type": "com.example.MyPlugin"})
			se := ginkgoutil.ExpectKind(err, svcerr.PluginClassNotFound)
			Expect(se.Fields()).To(Equal(map[string]interface{}{
				svcerr.TypeKey:       "com.example.MyPlugin",
				svcerr.PluginTypeKey: ptestType().String(),
			}))
		})
		It("empty type is not found", func() {
			_, err := r.Load(ptestType(), config.Document{"type": ""})
			se := ginkgoutil.ExpectKind(err, svcerr.PluginClassNotFound)
			ginkgoutil.ExpectField(se, svcerr.TypeKey, "")
		})
		It("alias without registered implementation is not found", func() {
			_, err := r.Load(ptestType(), config.Document{"type": "retry"})
			se := ginkgoutil.ExpectKind(err, svcerr.PluginClassNotFound)
			ginkgoutil.ExpectField(se, svcerr.TypeKey, Resolve("retry"))
		})
		DescribeTable("constructor missing",
			func(newPlugin interface{}) {
				r := NewRegistry()
				r.ptestRegister(newPlugin)
				_, err := r.Load(ptestType(), config.Document{"type": ptestPluginID})
				se := ginkgoutil.ExpectKind(err, svcerr.PluginConstructorMissing)
				ginkgoutil.ExpectField(se, svcerr.ReasonKey, "missing Configuration-View argument constructor")
				ginkgoutil.ExpectField(se, svcerr.TypeKey, ptestPluginID)
				ginkgoutil.ExpectField(se, svcerr.PluginTypeKey, ptestType().String())
			},
			Entry("no args", func() *ptestImpl { panic("should not be called") }),
			Entry("document arg", func(config.Document) *ptestImpl { panic("should not be called") }),
		)
		It("incorrect concrete type", func() {
			called := false
			r := NewRegistry()
			r.ptestRegister(func(v *config.View) *ptestImpl {
				called = true
				return ptestNew(v)
			})
			plugin, err := r.Load(ptestOtherType(), config.Document{"type": ptestPluginID})
			Expect(plugin).To(BeNil())
			se := ginkgoutil.ExpectKind(err, svcerr.PluginIncorrectType)
			ginkgoutil.ExpectField(se, svcerr.PluginTypeKey, ptestOtherType().String())
			ginkgoutil.ExpectField(se, svcerr.ActualKey, "*plugin.ptestImpl")
			By("constructor is not called")
			Expect(called).To(BeFalse())
		})
		It("incorrect dynamic type", func() {
			var created *ptestImpl
			r := NewRegistry()
			r.ptestRegister(func(v *config.View) io.Closer {
				created = ptestNew(v)
				return created
			})
			plugin, err := r.Load(ptestOtherType(), config.Document{"type": ptestPluginID})
			Expect(plugin).To(BeNil())
			se := ginkgoutil.ExpectKind(err, svcerr.PluginIncorrectType)
			ginkgoutil.ExpectField(se, svcerr.PluginTypeKey, ptestOtherType().String())
			By("rejected instance is closed")
			Expect(created.closed).To(BeTrue())
		})
		It("constructor error", func() {
			r := NewRegistry()
			r.ptestRegister(ptestNewErrFailing)
			plugin, err := r.Load(ptestType(), config.Document{"type": ptestPluginID})
			Expect(plugin).To(BeNil())
			se := ginkgoutil.ExpectKind(err, svcerr.PluginError)
			Expect(errors.Cause(err)).To(Equal(ptestCreateFailedErr))
			ginkgoutil.ExpectField(se, svcerr.TypeKey, ptestPluginID)
			ginkgoutil.ExpectField(se, svcerr.PluginTypeKey, ptestType().String())
		})
		It("constructor view error keeps kind", func() {
			r := NewRegistry()
			r.ptestRegister(ptestNewRequired)
			_, err := r.Load(ptestType(), config.Document{"type": ptestPluginID})
			ginkgoutil.ExpectKind(err, svcerr.PluginError)
			Expect(svcerr.Is(err, svcerr.ConfigMissingRequired)).To(BeTrue())
		})
		It("constructor panic", func() {
			r := NewRegistry()
			r.ptestRegister(func(*config.View) *ptestImpl { panic("boom") })
			_, err := r.Load(ptestType(), config.Document{"type": ptestPluginID})
			se := ginkgoutil.ExpectKind(err, svcerr.PluginError)
			Expect(se.Cause()).To(MatchError(ContainSubstring("boom")))
		})
		It("nil plugin", func() {
			r := NewRegistry()
			r.ptestRegister(func(*config.View) (ptestPlugin, error) { return nil, nil })
			_, err := r.Load(ptestType(), config.Document{"type": ptestPluginID})
			ginkgoutil.ExpectKind(err, svcerr.PluginError)
		})
		It("plugin returned with error is closed", func() {
			var created *ptestImpl
			r := NewRegistry()
			r.ptestRegister(func(v *config.View) (*ptestImpl, error) {
				created = ptestNew(v)
				return created, ptestCreateFailedErr
			})
			plugin, err := r.Load(ptestType(), config.Document{"type": ptestPluginID})
			Expect(plugin).To(BeNil())
			ginkgoutil.ExpectKind(err, svcerr.PluginError)
			Expect(created.closed).To(BeTrue())
		})
	})

	It("conformance is checked on dynamic type", func() {
		r := NewRegistry()
		r.ptestRegister(func(v *config.View) interface{} { return ptestNew(v) })
		plugin, err := r.Load(PtrType((*io.Closer)(nil)), config.Document{"type": ptestPluginID})
		Expect(err).NotTo(HaveOccurred())
		Expect(plugin).To(BeAssignableToTypeOf(&ptestImpl{}))
	})
})

var _ = Describe("load all", func() {
	var r *Registry
	BeforeEach(func() {
		r = NewRegistry()
		r.ptestRegister(ptestNewRequired)
	})

	It("ok", func() {
		plugins, err := r.LoadAll(ptestType(), []interface{}{
			config.Document{"type": ptestPluginID, "config": config.Document{"value": "a"}},
			config.Document{"type": ptestPluginID, "config": config.Document{"value": "b"}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(plugins).To(HaveLen(2))
		Expect(plugins[1].(*ptestImpl).view.String("value")).To(Equal("b"))
	})

	It("empty", func() {
		plugins, err := r.LoadAll(ptestType(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(plugins).To(BeEmpty())
	})

	It("overlay passed to each", func() {
		plugins, err := r.LoadAll(ptestType(), []interface{}{
			config.Document{"type": ptestPluginID},
			config.Document{"type": ptestPluginID},
		}, map[string]interface{}{"value": "injected"})
		Expect(err).NotTo(HaveOccurred())
		for _, p := range plugins {
			Expect(p.(*ptestImpl).view.String("value")).To(Equal("injected"))
		}
	})

	It("failures joined", func() {
		plugins, err := r.LoadAll(ptestType(), []interface{}{
			config.Document{"type": ptestPluginID, "config": config.Document{"value": "a"}},
			config.Document{"type": "unknown"},
			config.Document{"type": ptestPluginID},
		})
		Expect(plugins).To(BeNil())
		Expect(err).To(MatchError(ContainSubstring("plugin #1")))
		Expect(err).To(MatchError(ContainSubstring("plugin #2")))
		errs := errutil.Errors(err)
		Expect(errs).To(HaveLen(2))
		Expect(svcerr.Is(errs[0], svcerr.PluginClassNotFound)).To(BeTrue())
		Expect(svcerr.Is(errs[1], svcerr.ConfigMissingRequired)).To(BeTrue())
	})
})

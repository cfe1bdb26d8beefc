// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package plugin

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/svcerr"
	"github.com/yandex/hvdf/lib/ginkgoutil"
)

var _ = Describe("Default registry", func() {
	BeforeEach(func() {
		Register(ptestPluginID, ptestNewRequired)
	})
	AfterEach(func() {
		defaultRegistry = NewRegistry()
	})
	It("lookup", func() {
		Expect(Lookup(ptestPluginID)).To(BeTrue())
		Expect(Registered()).To(Equal([]string{ptestPluginID}))
	})
	It("new", func() {
		plugin, err := New(ptestType(), ptestPluginID, config.Document{ptestValueKey: "x"})
		Expect(err).NotTo(HaveOccurred())
		Expect(plugin).NotTo(BeNil())
	})
	It("load as", func() {
		plugin, err := LoadAs[ptestPlugin](config.Document{"type": ptestPluginID},
			map[string]interface{}{ptestValueKey: "x"})
		Expect(err).NotTo(HaveOccurred())
		Expect(plugin.(*ptestImpl).view.String(ptestValueKey)).To(Equal("x"))
	})
	It("load as fail", func() {
		plugin, err := LoadAs[ptestOther](config.Document{"type": ptestPluginID},
			map[string]interface{}{ptestValueKey: "x"})
		Expect(plugin).To(BeNil())
		ginkgoutil.ExpectKind(err, svcerr.PluginIncorrectType)
	})
	It("load all as", func() {
		plugins, err := LoadAllAs[ptestPlugin]([]interface{}{
			config.Document{"type": ptestPluginID, "config": config.Document{ptestValueKey: "x"}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(plugins).To(HaveLen(1))

		plugins, err = LoadAllAs[ptestPlugin]([]interface{}{config.Document{"type": ptestPluginID}})
		Expect(err).To(HaveOccurred())
		Expect(plugins).To(BeNil())
	})
})

var _ = Describe("type helpers", func() {
	It("ptr type", func() {
		var plugin ptestPlugin
		Expect(PtrType(&plugin)).To(Equal(ptestType()))
	})
	It("not ptr panics", func() {
		Expect(func() { PtrType(0) }).To(Panic())
	})
})

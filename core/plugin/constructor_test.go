// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package plugin

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/yandex/hvdf/core/config"
)

var _ = Describe("plugin constructor", func() {
	DescribeTable("expectations failed",
		func(newPlugin interface{}) {
			defer recoverExpectationFail()
			newConstructor(newPlugin)
		},
		Entry("nil", nil),
		Entry("not func", errors.New("that is not constructor")),
		Entry("no return values", func(*config.View) {}),
		Entry("too many return values", func(*config.View) (_ ptestPlugin, _, _ error) { panic("") }),
		Entry("second return value is not error", func(*config.View) (_, _ ptestPlugin) { panic("") }),
		Entry("returns only error", func(*config.View) error { panic("") }),
	)

	DescribeTable("accepts view",
		func(newPlugin interface{}, accepts bool) {
			Expect(newConstructor(newPlugin).acceptsView()).To(Equal(accepts))
		},
		Entry("view", ptestNew, true),
		Entry("view with error", ptestNewErr, true),
		Entry("no args", func() *ptestImpl { panic("") }, false),
		Entry("document", func(config.Document) *ptestImpl { panic("") }, false),
		Entry("view value", func(config.View) *ptestImpl { panic("") }, false),
		Entry("two args", func(*config.View, *config.View) *ptestImpl { panic("") }, false),
		Entry("variadic", func(...*config.View) *ptestImpl { panic("") }, false),
	)

	It("impl type", func() {
		Expect(newConstructor(ptestNewErr).implType()).To(Equal(PtrType((**ptestImpl)(nil))))
	})

	Context("call", func() {
		view := config.NewView(nil, nil)
		It("ok", func() {
			plugin, err := newConstructor(ptestNew).call(view)
			Expect(err).NotTo(HaveOccurred())
			Expect(plugin.(*ptestImpl).view).To(BeIdenticalTo(view))
		})
		It("error", func() {
			plugin, err := newConstructor(ptestNewErrFailing).call(view)
			Expect(err).To(Equal(ptestCreateFailedErr))
			Expect(plugin).To(BeNil())
		})
		It("typed nil is nil", func() {
			plugin, err := newConstructor(func(*config.View) *ptestImpl { return nil }).call(view)
			Expect(err).NotTo(HaveOccurred())
			Expect(plugin).To(BeNil())
		})
		It("panic", func() {
			plugin, err := newConstructor(func(*config.View) *ptestImpl { panic("boom") }).call(view)
			Expect(err).To(MatchError(ContainSubstring("boom")))
			Expect(plugin).To(BeNil())
		})
		It("error panic", func() {
			plugin, err := newConstructor(func(*config.View) *ptestImpl {
				panic(fmt.Errorf("wrapped"))
			}).call(view)
			Expect(err).To(MatchError(ContainSubstring("wrapped")))
			Expect(plugin).To(BeNil())
		})
	})
})

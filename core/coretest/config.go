// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package coretest

import (
	"github.com/onsi/gomega"

	"github.com/yandex/hvdf/core/config"
)

// ParseDocument parses YAML document with preserved keys case.
func ParseDocument(data string) config.Document {
	doc, err := config.ParseYAML([]byte(data))
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return doc
}

// DecodeAndValidate decodes YAML document into config struct and validates it.
func DecodeAndValidate(data string, result interface{}) {
	err := config.DecodeAndValidate(ParseDocument(data), result)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
}

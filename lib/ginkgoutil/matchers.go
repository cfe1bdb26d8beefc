// Copyright (c) 2018 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package ginkgoutil

import (
	"github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/yandex/hvdf/core/svcerr"
)

// ExpectKind expects that outermost structured error in err chain has passed kind,
// and returns it.
func ExpectKind(err error, kind svcerr.Kind) *svcerr.Error {
	gomega.ExpectWithOffset(1, err).To(gomega.HaveOccurred())
	var se *svcerr.Error
	gomega.ExpectWithOffset(1, errors.As(err, &se)).To(gomega.BeTrue(), "not structured error: %v", err)
	gomega.ExpectWithOffset(1, se.Kind()).To(gomega.Equal(kind), "unexpected error: %v", err)
	return se
}

func ExpectField(err *svcerr.Error, key string, val interface{}) {
	actual, ok := err.Field(key)
	gomega.ExpectWithOffset(1, ok).To(gomega.BeTrue(), "no field %q in %v", key, err)
	gomega.ExpectWithOffset(1, actual).To(gomega.Equal(val))
}

// Copyright (c) 2016 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package config

import (
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/bluesuncorp/validator.v9"
)

// Tags of custom validations.
const (
	MinSizeTag          = "min-size"
	MaxSizeTag          = "max-size"
	TimezoneTag         = "timezone"
	CollectionPrefixTag = "collection-prefix"
	FieldPathTag        = "field-path"
)

var validations = []struct {
	key string
	val validator.Func
}{
	{MinSizeTag, MinSizeValidation},
	{MaxSizeTag, MaxSizeValidation},
	{TimezoneTag, TimezoneValidation},
	{CollectionPrefixTag, CollectionPrefixValidation},
	{FieldPathTag, FieldPathValidation},
}

var (
	validatorMu      sync.RWMutex
	defaultValidator = newValidator()
)

func Validate(value interface{}) error {
	validatorMu.RLock()
	defer validatorMu.RUnlock()
	return errors.WithStack(defaultValidator.Struct(value))
}

// RegisterValidation adds custom validation, that plugin configs can use by tag.
// Should be called on plugin registration, before any config decode.
func RegisterValidation(tag string, fn validator.Func) error {
	validatorMu.Lock()
	defer validatorMu.Unlock()
	return errors.WithStack(defaultValidator.RegisterValidation(tag, fn))
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.SetTagName("validate")
	for _, val := range validations {
		_ = validate.RegisterValidation(val.key, val.val)
	}
	return validate
}

package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	validator "gopkg.in/bluesuncorp/validator.v9"
)

func MinSizeValidation(fl validator.FieldLevel) bool {
	t, min, ok := getSizeForValidation(fl.Field().Interface(), fl.Param())
	return ok && min <= t
}

func MaxSizeValidation(fl validator.FieldLevel) bool {
	t, max, ok := getSizeForValidation(fl.Field().Interface(), fl.Param())
	return ok && t <= max
}

func getSizeForValidation(v interface{}, param string) (actual, check datasize.ByteSize, ok bool) {
	err := check.UnmarshalText([]byte(param))
	if err != nil {
		return
	}
	actual, ok = v.(datasize.ByteSize)
	return
}

// TimezoneValidation checks that string is IANA location name, loadable by time.LoadLocation.
// Empty string is valid and means UTC.
func TimezoneValidation(fl validator.FieldLevel) bool {
	name, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

var collectionPrefixRegexp = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// CollectionPrefixValidation checks that string can start storage collection name.
// Empty string is invalid.
func CollectionPrefixValidation(fl validator.FieldLevel) bool {
	prefix, ok := fl.Field().Interface().(string)
	return ok && collectionPrefixRegexp.MatchString(prefix)
}

// FieldPathValidation checks that string is dotted path of sample data field,
// without empty segments.
func FieldPathValidation(fl validator.FieldLevel) bool {
	path, ok := fl.Field().Interface().(string)
	if !ok || path == "" {
		return false
	}
	for _, segment := range strings.Split(path, ".") {
		if strings.TrimSpace(segment) != segment || segment == "" {
			return false
		}
	}
	return true
}

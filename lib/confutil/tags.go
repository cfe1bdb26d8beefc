// Package confutil resolves ${tag:name} variables in config strings.
package confutil

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrNoTagsFound                  = errors.New("no tags found")
	ErrUnsupportedKind              = errors.New("unsupported kind")
	ErrCantCastVariableToTargetType = errors.New("can't cast variable")
	ErrEnvVariableNotProvided       = errors.New("env variable not set")
)

type TagResolver func(string) (string, error)

var (
	resolversMu sync.RWMutex
	resolvers   = map[string]TagResolver{
		"env": EnvTagResolver,
	}
)

// RegisterTagResolver registers resolver for ${tagType:name} variables.
// Existing resolver is silently replaced.
func RegisterTagResolver(tagType string, resolver TagResolver) {
	resolversMu.Lock()
	defer resolversMu.Unlock()
	resolvers[strings.ToLower(tagType)] = resolver
}

func getTagResolver(tagType string) (TagResolver, bool) {
	resolversMu.RLock()
	defer resolversMu.RUnlock()
	r, ok := resolvers[strings.ToLower(tagType)]
	return r, ok
}

// EnvTagResolver resolves name to env variable value.
func EnvTagResolver(name string) (string, error) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrEnvVariableNotProvided)
	}
	return val, nil
}

var tagRegexp = regexp.MustCompile(`\$\{(?:([^}]+?):)?([^{}]+?)\}`)

type tagEntry struct {
	tagType string
	token   string
	varname string
}

// ResolveCustomTags resolves variables in s. Variables with unknown tag types are kept as is.
// If s consists of exactly one variable, result is cast to targetType kind, when possible,
// because mapstructure doesn't convert strings to numbers and bools.
// Returns ErrNoTagsFound, if s has no variables.
func ResolveCustomTags(s string, targetType reflect.Type) (interface{}, error) {
	tokens := findTags(s)
	if len(tokens) == 0 {
		return s, ErrNoTagsFound
	}
	res := s
	for _, t := range tokens {
		resolver, ok := getTagResolver(t.tagType)
		if !ok {
			continue
		}
		resolved, err := resolver(t.varname)
		if err != nil {
			return nil, err
		}
		res = strings.ReplaceAll(res, t.token, resolved)
	}
	if len(tokens) == 1 && strings.TrimSpace(s) == tokens[0].token {
		casted, err := cast(res, targetType)
		switch {
		case err == nil:
			return casted, nil
		case errors.Is(err, ErrUnsupportedKind):
			// Let other hooks convert string.
		default:
			return nil, err
		}
	}
	return res, nil
}

func findTags(s string) []tagEntry {
	found := tagRegexp.FindAllStringSubmatch(s, -1)
	result := make([]tagEntry, 0, len(found))
	for _, token := range found {
		result = append(result, tagEntry{
			tagType: strings.TrimSpace(token[1]),
			varname: strings.TrimSpace(token[2]),
			token:   token[0],
		})
	}
	return result
}

func cast(v string, t reflect.Type) (interface{}, error) {
	if t == nil {
		return nil, ErrUnsupportedKind
	}
	val := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("'%s' cast to bool failed: %w", v, ErrCantCastVariableToTargetType)
		}
		val.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if t.PkgPath() != "" {
			// Named types like time.Duration have own text formats.
			return nil, ErrUnsupportedKind
		}
		i, err := strconv.ParseInt(v, 0, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("'%s' cast to %s failed: %w", v, t, ErrCantCastVariableToTargetType)
		}
		val.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.PkgPath() != "" {
			return nil, ErrUnsupportedKind
		}
		u, err := strconv.ParseUint(v, 0, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("'%s' cast to %s failed: %w", v, t, ErrCantCastVariableToTargetType)
		}
		val.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(v, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("'%s' cast to %s failed: %w", v, t, ErrCantCastVariableToTargetType)
		}
		val.SetFloat(f)
	case reflect.String:
		val.SetString(v)
	default:
		return nil, ErrUnsupportedKind
	}
	return val.Interface(), nil
}

// Package mp extracts values from nested untyped documents by dotted path,
// like `cpu.cores[0].load`.
package mp

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type ErrSegmentNotFound struct {
	path    string
	segment string
}

func (e *ErrSegmentNotFound) Error() string {
	return fmt.Sprintf("segment %s not found in path %s", e.segment, e.path)
}

// GetMapValue returns value at path. Path segments are separated by dot.
// Segment may have index suffix, like `items[1]`, to take sequence element.
// Index may be negative to count from the end, or `last`.
// Any map with string keys and any slice are supported on the way.
func GetMapValue(input interface{}, path string) (interface{}, error) {
	current := reflect.ValueOf(input)
	for _, segment := range strings.Split(path, ".") {
		segment = strings.TrimSpace(segment)
		var indexStr string
		hasIndex := strings.HasSuffix(segment, "]") && strings.Contains(segment, "[")
		if hasIndex {
			openBraceIdx := strings.Index(segment, "[")
			indexStr = strings.ToLower(strings.TrimSpace(segment[openBraceIdx+1 : len(segment)-1]))
			segment = segment[:openBraceIdx]
		}
		value, err := mapIndex(current, segment)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, &ErrSegmentNotFound{path: path, segment: segment}
		}
		current = *value
		if hasIndex {
			current, err = sliceIndex(current, indexStr)
			if err != nil {
				return nil, fmt.Errorf("segment %s in path %s: %w", segment, path, err)
			}
		}
	}
	if !current.IsValid() {
		return nil, nil
	}
	return current.Interface(), nil
}

func mapIndex(v reflect.Value, key string) (*reflect.Value, error) {
	v = unwrap(v)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("can't get %s from non map value of type %s", key, typeOf(v))
	}
	value := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	if !value.IsValid() {
		return nil, nil
	}
	return &value, nil
}

func sliceIndex(v reflect.Value, indexStr string) (reflect.Value, error) {
	v = unwrap(v)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return reflect.Value{}, fmt.Errorf("can't index non sequence value of type %s", typeOf(v))
	}
	length := v.Len()
	if length == 0 {
		return reflect.Value{}, fmt.Errorf("can't index empty sequence")
	}
	index, err := calcIndex(indexStr, length)
	if err != nil {
		return reflect.Value{}, err
	}
	return v.Index(index), nil
}

func calcIndex(indexStr string, length int) (int, error) {
	if indexStr == "last" {
		return length - 1, nil
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return 0, fmt.Errorf("index should be integer or `last`, but got `%s`", indexStr)
	}
	if index < 0 {
		index += length
	}
	if index < 0 || index >= length {
		return 0, fmt.Errorf("index %s out of range [0, %d)", indexStr, length)
	}
	return index, nil
}

// unwrap returns value stored in interface.
func unwrap(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func typeOf(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}

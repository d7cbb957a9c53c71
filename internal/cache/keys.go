package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator separates the serialized parts of a key.
const KeySeparator = "::"

// Key builds a deterministic key inside namespace from parts. Equal parts
// always produce the same key, regardless of pointer identity or map order.
//
//	Key("tasks:list", filter) // tasks:list::{Limit:10,Page:1,Priority:nil,Status:TODO}
func Key(namespace string, parts ...interface{}) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, namespace)
	for _, part := range parts {
		segments = append(segments, serializeValue(reflect.ValueOf(part)))
	}
	return strings.Join(segments, KeySeparator)
}

func serializeValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	if rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "nil"
		}
		return serializeValue(rv.Elem())
	}

	// uuid.UUID and similar values key by their string form.
	if rv.CanInterface() {
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}

	switch rv.Kind() {
	case reflect.Struct:
		return serializeStruct(rv)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "nil"
		}
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = serializeValue(rv.Index(i))
		}
		return "[" + strings.Join(items, ",") + "]"
	case reflect.Map:
		if rv.IsNil() {
			return "nil"
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, serializeValue(iter.Key())+"="+serializeValue(iter.Value()))
		}
		sort.Strings(pairs)
		return "map{" + strings.Join(pairs, ",") + "}"
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return fmt.Sprintf("%v", rv.Interface())
	}

	if !rv.CanInterface() {
		return rv.Kind().String()
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return fmt.Sprintf("%v", rv.Interface())
	}
	return string(data)
}

// serializeStruct writes exported fields sorted by name.
func serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	fields := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fields = append(fields, field.Name+":"+serializeValue(rv.Field(i)))
	}
	sort.Strings(fields)
	return "{" + strings.Join(fields, ",") + "}"
}

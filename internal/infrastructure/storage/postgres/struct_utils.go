package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns extracts all column names from struct "db" tags, in field
// order. Embedded structs are walked recursively.
//
// Usage:
//
//	columns := ExtractDBColumns[catalog.Fabric]()
//	// Returns: ["id", "fabric_type", "subtype", "gsm", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	cols := make([]string, len(meta.fields))
	for i, f := range meta.fields {
		cols[i] = f.column
	}
	return cols
}

// fieldInfo is one tagged field, addressed by its index path.
type fieldInfo struct {
	index  []int
	column string
}

type typeMetadata struct {
	fields []fieldInfo
}

// typeCache maps reflect.Type to *typeMetadata.
var typeCache sync.Map

func metadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	typeCache.Store(t, meta)
	return meta
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, meta)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: index, column: tag})
	}
}

// StructValues returns the values of the "db"-tagged fields of v in the
// order ExtractDBColumns lists their columns.
func StructValues(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataOf(rv.Type())
	values := make([]any, len(meta.fields))
	for i, f := range meta.fields {
		values[i] = rv.FieldByIndex(f.index).Interface()
	}
	return values
}

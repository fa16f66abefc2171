package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel starts an insert from a struct's `db` tagged fields, in field
// order. Untagged fields and fields tagged "-" are skipped.
func InsertModel(table string, model any) *InsertBuilder {
	b := InsertInto(table)
	columns, values, err := modelColumns(model)
	if err != nil {
		b.modelError = fmt.Errorf("insert into %s: %w", table, err)
		return b
	}
	return b.Columns(columns...).Values(values...)
}

func modelColumns(model any) ([]string, []any, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, fmt.Errorf("model is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct, got %s", v.Kind())
	}

	t := v.Type()
	var (
		columns []string
		values  []any
	)
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		columns = append(columns, name)
		values = append(values, v.Field(i).Interface())
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("model %s has no db columns", t.Name())
	}
	return columns, values, nil
}

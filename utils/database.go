package utils

import (
	"reflect"
)

// ColumnList returns the `db` tags of T's fields, in declaration order. Used
// by dbmodels to keep SELECT column lists in sync with the struct.
func ColumnList[T any]() []string {
	var model T
	t := reflect.TypeOf(model)

	columns := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		columns = append(columns, tag)
	}
	return columns
}

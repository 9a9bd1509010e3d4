package watcher

import (
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// The watched custom resources are consumed unstructured, so field access
// goes through typed get-with-default helpers: any missing or mistyped
// segment along a dotted path yields the default rather than an error.

func fieldString(object map[string]interface{}, path string, fallback string) string {
	value, found, err := unstructured.NestedString(object, splitPath(path)...)
	if !found || err != nil {
		return fallback
	}
	return value
}

func fieldInt(object map[string]interface{}, path string, fallback int64) int64 {
	value, found, err := unstructured.NestedInt64(object, splitPath(path)...)
	if !found || err != nil {
		return fallback
	}
	return value
}

func fieldStringSlice(object map[string]interface{}, path string) []string {
	value, found, err := unstructured.NestedStringSlice(object, splitPath(path)...)
	if !found || err != nil {
		return nil
	}
	return value
}

func fieldStringMap(object map[string]interface{}, path string) map[string]string {
	value, found, err := unstructured.NestedStringMap(object, splitPath(path)...)
	if !found || err != nil {
		return nil
	}
	return value
}

// fieldCapacity reads a capacity ceiling. Zero and absent both mean
// unlimited and are returned as nil.
func fieldCapacity(object map[string]interface{}, path string) *int {
	value, found, err := unstructured.NestedInt64(object, splitPath(path)...)
	if !found || err != nil || value == 0 {
		return nil
	}
	capacity := int(value)
	return &capacity
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

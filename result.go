// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// typeNamePunctuation matches characters replaced by "_" in type and module names
var typeNamePunctuation = regexp.MustCompile(`[,\-!/]`)

// SanitizeName replaces the punctuation characters ",-!/" with underscores.
// It is used for result type names and API module names.
func SanitizeName(s string) string {
	return typeNamePunctuation.ReplaceAllString(s, "_")
}

// Result wraps the JSON "result" payload of a response
//
// Every nested object is reachable by key (Field, Get) and as a map (Map);
// arrays keep element order (List). Nested values carry the same Name as
// their parent. A Result is a pure function of the payload and its name.
//
// Example:
//
//	res, err := client.Call(ctx, "clients", "get_status")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range res.Field("clients").List() {
//	    fmt.Println(c.Get("mac").String())
//	}
type Result struct {
	// Name is the type tag: "module__action" for calls, the method otherwise
	Name string

	value gjson.Result
}

// NewResult wraps a raw JSON document under the given type name
func NewResult(name, raw string) Result {
	return Result{Name: name, value: gjson.Parse(raw)}
}

// typeName derives the result type tag for a method and its caller params
func typeName(method string, params any) string {
	if method != "call" {
		return method
	}
	module, action, ok := callTarget(params)
	if !ok {
		return method
	}
	return SanitizeName(module + "__" + action)
}

// callTarget extracts module and action from "call" params. Params other
// than plain slices are read from their JSON encoding.
func callTarget(params any) (string, string, bool) {
	switch p := params.(type) {
	case []string:
		if len(p) >= 2 {
			return p[0], p[1], true
		}
		return "", "", false
	case []any:
		if len(p) >= 2 {
			module, ok1 := p[0].(string)
			action, ok2 := p[1].(string)
			return module, action, ok1 && ok2
		}
		return "", "", false
	case nil:
		return "", "", false
	}

	raw, err := encodeParams("call", params)
	if err != nil {
		return "", "", false
	}
	parsed := gjson.Parse(raw)
	module, action := parsed.Get("0"), parsed.Get("1")
	if !parsed.IsArray() || module.Type != gjson.String || action.Type != gjson.String {
		return "", "", false
	}
	return module.String(), action.String(), true
}

// Exists reports whether the result holds a value
func (r Result) Exists() bool {
	return r.value.Exists()
}

// IsObject reports whether the result is a JSON object
func (r Result) IsObject() bool {
	return r.value.IsObject()
}

// IsArray reports whether the result is a JSON array
func (r Result) IsArray() bool {
	return r.value.IsArray()
}

// Get retrieves a value using a gjson path, e.g. "clients.0.mac"
func (r Result) Get(path string) gjson.Result {
	return r.value.Get(path)
}

// Field returns the direct child with the given key as a Result.
// The key is matched literally (gjson path characters are escaped).
func (r Result) Field(key string) Result {
	return Result{Name: r.Name, value: r.value.Get(gjson.Escape(key))}
}

// Lookup returns the direct child with the given key and whether it exists
func (r Result) Lookup(key string) (Result, bool) {
	f := r.Field(key)
	return f, f.Exists()
}

// Map returns the object members as Results. Nil if the value is not an object.
func (r Result) Map() map[string]Result {
	if !r.value.IsObject() {
		return nil
	}
	out := make(map[string]Result)
	r.value.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = Result{Name: r.Name, value: value}
		return true
	})
	return out
}

// Keys returns object keys in document order
func (r Result) Keys() []string {
	if !r.value.IsObject() {
		return nil
	}
	var keys []string
	r.value.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// List returns the array elements in order. Nil if the value is not an array.
func (r Result) List() []Result {
	if !r.value.IsArray() {
		return nil
	}
	elems := r.value.Array()
	out := make([]Result, len(elems))
	for i, e := range elems {
		out[i] = Result{Name: r.Name, value: e}
	}
	return out
}

// String returns the value as a string (the raw JSON for objects and arrays)
func (r Result) String() string {
	return r.value.String()
}

// Raw returns the raw JSON text of the value
func (r Result) Raw() string {
	return r.value.Raw
}

// Value returns the value as plain Go types (map[string]any, []any, float64, ...)
func (r Result) Value() any {
	return r.value.Value()
}

// Equal reports whether both results carry the same name and the same JSON value
func (r Result) Equal(other Result) bool {
	return r.Name == other.Name && reflect.DeepEqual(r.value.Value(), other.value.Value())
}

// Decode converts the result into out (a pointer to a struct, map or slice)
// using the struct's json tags as field names.
//
// Example:
//
//	var status struct {
//	    Clients []struct {
//	        MAC string `json:"mac"`
//	    } `json:"clients"`
//	}
//	if err := res.Decode(&status); err != nil {
//	    log.Fatal(err)
//	}
func (r Result) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("decode %s: %w", r.Name, err)
	}
	if err := decoder.Decode(r.value.Value()); err != nil {
		return fmt.Errorf("decode %s: %w", r.Name, err)
	}
	return nil
}

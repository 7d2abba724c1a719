// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestSanitizeName tests punctuation replacement in type names
func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "clients", want: "clients"},
		{in: "repeater-ng", want: "repeater_ng"},
		{in: "a,b-c!d/e", want: "a_b_c_d_e"},
		{in: "get_status", want: "get_status"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestTypeName tests result naming for calls and plain methods
func TestTypeName(t *testing.T) {
	tests := []struct {
		name   string
		method string
		params any
		want   string
	}{
		{name: "plain method", method: "alive", params: map[string]string{"sid": "x"}, want: "alive"},
		{name: "call string slice", method: "call", params: []string{"system", "get_info"}, want: "system__get_info"},
		{name: "call any slice", method: "call", params: []any{"repeater-ng", "scan", map[string]any{}}, want: "repeater_ng__scan"},
		{name: "call punctuation", method: "call", params: []string{"a/b", "c,d"}, want: "a_b__c_d"},
		{name: "call too short", method: "call", params: []string{"system"}, want: "call"},
		{name: "call object params", method: "call", params: map[string]any{}, want: "call"},
		{name: "call non-string target", method: "call", params: []any{1, 2}, want: "call"},
		{name: "call raw message", method: "call", params: json.RawMessage(`["repeater-ng","scan"]`), want: "repeater_ng__scan"},
		{name: "call array value", method: "call", params: [3]string{"system", "get_info", ""}, want: "system__get_info"},
		{name: "call raw non-string target", method: "call", params: json.RawMessage(`[1,"scan"]`), want: "call"},
		{name: "call raw object", method: "call", params: json.RawMessage(`{"module":"system"}`), want: "call"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := typeName(tt.method, tt.params); got != tt.want {
				t.Errorf("typeName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestResultAccess tests key, map and list access
func TestResultAccess(t *testing.T) {
	res := NewResult("clients__get_status", `{
		"clients": [{"mac": "aa:bb", "online": true}, {"mac": "cc:dd", "online": false}],
		"wifi.5g": {"ssid": "home"},
		"count": 2
	}`)

	if !res.Exists() || !res.IsObject() || res.IsArray() {
		t.Fatal("result should be an existing object")
	}

	clients := res.Field("clients")
	if !clients.IsArray() {
		t.Fatalf("clients should be an array, got %s", clients.Raw())
	}
	list := clients.List()
	if len(list) != 2 {
		t.Fatalf("List() len = %d, want 2", len(list))
	}
	if list[1].Get("mac").String() != "cc:dd" {
		t.Errorf("list order not preserved: %s", list[1].Raw())
	}
	for _, elem := range list {
		if elem.Name != res.Name {
			t.Errorf("element name = %q, want %q", elem.Name, res.Name)
		}
	}

	// keys containing gjson path characters are matched literally
	wifi, ok := res.Lookup("wifi.5g")
	if !ok {
		t.Fatal("Lookup(\"wifi.5g\") should find the key")
	}
	if wifi.Get("ssid").String() != "home" {
		t.Errorf("wifi.5g ssid = %q", wifi.Get("ssid").String())
	}
	if _, ok := res.Lookup("missing"); ok {
		t.Error("Lookup(\"missing\") should report false")
	}

	m := res.Map()
	if len(m) != 3 {
		t.Errorf("Map() len = %d, want 3", len(m))
	}
	if m["count"].Value() != float64(2) {
		t.Errorf("count = %v, want 2", m["count"].Value())
	}
	if m["count"].Name != res.Name {
		t.Errorf("map value name = %q, want %q", m["count"].Name, res.Name)
	}

	if got, want := res.Keys(), []string{"clients", "wifi.5g", "count"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	if res.Field("count").Map() != nil || res.Field("count").List() != nil {
		t.Error("scalars should have no map or list view")
	}
}

// TestResultEqual tests that results are pure functions of payload and name
func TestResultEqual(t *testing.T) {
	a := NewResult("system__get_info", `{"model":"mt3000","ports":[1,2]}`)
	b := NewResult("system__get_info", `{ "ports": [1, 2], "model": "mt3000" }`)
	c := NewResult("alive", `{"model":"mt3000","ports":[1,2]}`)
	d := NewResult("system__get_info", `{"model":"mt3000","ports":[2,1]}`)

	if !a.Equal(b) {
		t.Error("same payload and name should be equal regardless of formatting")
	}
	if a.Equal(c) {
		t.Error("different names should not be equal")
	}
	if a.Equal(d) {
		t.Error("different array order should not be equal")
	}
}

// TestResultDecode tests the typed view
func TestResultDecode(t *testing.T) {
	res := NewResult("clients__get_list", `{
		"clients": [{"mac": "aa:bb", "online": true, "rx": "1024"}]
	}`)

	var out struct {
		Clients []struct {
			MAC    string `json:"mac"`
			Online bool   `json:"online"`
			RX     int    `json:"rx"`
		} `json:"clients"`
	}
	if err := res.Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(out.Clients) != 1 || out.Clients[0].MAC != "aa:bb" || !out.Clients[0].Online {
		t.Errorf("Decode() = %+v", out)
	}
	if out.Clients[0].RX != 1024 {
		t.Errorf("weakly typed rx = %d, want 1024", out.Clients[0].RX)
	}

	var wrong struct {
		Clients string `json:"clients"`
	}
	if err := res.Decode(&wrong); err == nil {
		t.Error("Decode() into mismatched type should fail")
	}
}

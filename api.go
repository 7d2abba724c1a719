// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// API is the set of remote procedures described by the API reference
// document, grouped by module. It is read-only once loaded.
//
// Example:
//
//	api, err := client.API(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	call, err := api.Lookup("clients", "get_status")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(call) // parameter table and examples
//	res, err := call.Invoke(ctx)
type API struct {
	modules map[string]*APIModule
}

// APIModule groups the calls of one router module
type APIModule struct {
	Name  string
	calls map[string]*APICall
}

// APIParam describes one parameter of a call
type APIParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// APICall is a callable remote procedure
type APICall struct {
	// Name is the sanitized call name
	Name string `json:"name"`

	// Module is the module path sent as the leading "call" parameters
	Module []string `json:"module"`

	// Title is the action name sent after the module
	Title string `json:"title"`

	Params     []APIParam `json:"params"`
	InExample  string     `json:"in_example,omitempty"`
	OutExample string     `json:"out_example,omitempty"`

	client *Client
}

// Modules returns the module names in sorted order
func (a *API) Modules() []string {
	names := make([]string, 0, len(a.modules))
	for name := range a.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module returns the named module
func (a *API) Module(name string) (*APIModule, bool) {
	m, ok := a.modules[name]
	return m, ok
}

// Lookup returns module/call or an error matching ErrMethodNotFound
func (a *API) Lookup(module, call string) (*APICall, error) {
	m, ok := a.modules[module]
	if !ok {
		return nil, newError("api", ErrMethodNotFound, fmt.Sprintf("unknown module %q", module))
	}
	c, ok := m.calls[call]
	if !ok {
		return nil, newError("api", ErrMethodNotFound, fmt.Sprintf("unknown call %s.%s", module, call))
	}
	return c, nil
}

// Calls returns the call names in sorted order
func (m *APIModule) Calls() []string {
	names := make([]string, 0, len(m.calls))
	for name := range m.calls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call returns the named call
func (m *APIModule) Call(name string) (*APICall, bool) {
	c, ok := m.calls[name]
	return c, ok
}

// Invoke sends the call. payload (typically Params or a map) is appended
// after module and title.
func (c *APICall) Invoke(ctx context.Context, payload ...any) (Result, error) {
	params := make([]any, 0, len(c.Module)+1+len(payload))
	for _, m := range c.Module {
		params = append(params, m)
	}
	params = append(params, c.Title)
	for _, p := range payload {
		if raw, ok := p.(Params); ok {
			s, err := raw.String()
			if err != nil {
				return Result{}, &Error{Operation: "call " + c.Name, Message: err.Error(), Kind: ErrWrongParameters}
			}
			p = rawJSON(s)
		}
		params = append(params, p)
	}
	return c.client.Request(ctx, "call", params)
}

// String renders the parameter table followed by the request and response
// examples
func (c *APICall) String() string {
	var b strings.Builder
	b.WriteString("Available parameters (?=optional):\n")

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Parameter\tType\tDescription")
	fmt.Fprintln(tw, "---------\t----\t-----------")
	for _, p := range c.Params {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Type, p.Description)
	}
	_ = tw.Flush()

	b.WriteString("\nExample request:\n")
	b.WriteString(c.InExample)
	b.WriteString("\n\nExample response:\n")
	b.WriteString(c.OutExample)
	b.WriteString("\n")
	return b.String()
}

// API returns the API description, loading it on first use from the cache
// or from APIReferenceURL. Requires a live session.
func (c *Client) API(ctx context.Context) (*API, error) {
	if err := c.checkPolicy(ctx, "api"); err != nil {
		return nil, err
	}

	c.apiMu.Lock()
	defer c.apiMu.Unlock()

	if c.api != nil {
		return c.api, nil
	}
	api, err := c.loadAPI(ctx, c.RefreshAPIReference)
	if err != nil {
		return nil, err
	}
	c.api = api
	return api, nil
}

// RefreshAPI downloads the API description again and replaces the cached
// copy. Requires a live session.
func (c *Client) RefreshAPI(ctx context.Context) (*API, error) {
	if err := c.checkPolicy(ctx, "api"); err != nil {
		return nil, err
	}

	c.apiMu.Lock()
	defer c.apiMu.Unlock()

	api, err := c.loadAPI(ctx, true)
	if err != nil {
		return nil, err
	}
	c.api = api
	return api, nil
}

// loadAPI reads the description from the cache unless refresh is set or the
// cache is missing or unusable, then falls back to the remote document
func (c *Client) loadAPI(ctx context.Context, refresh bool) (*API, error) {
	if !refresh {
		doc, err := c.cache.LoadAPIDescription()
		switch {
		case err != nil:
			c.logger.Warn(ctx, "Ignoring unreadable API description cache",
				"error", err.Error())
		case doc != nil:
			api, perr := newAPI(doc, c)
			if perr == nil {
				c.logger.Debug(ctx, "API description loaded from cache",
					"path", c.cache.APIDescriptionPath(),
					"modules", len(api.modules))
				return api, nil
			}
			c.logger.Warn(ctx, "Ignoring malformed API description cache",
				"error", perr.Error())
		}
	}

	c.logger.Info(ctx, "Loading API description",
		"url", c.APIReferenceURL)

	raw, err := c.fetchAPIDocument(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := normalizeAPIDocument(raw)
	if err != nil {
		return nil, err
	}
	api, err := newAPI(doc, c)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SaveAPIDescription(doc); err != nil {
		c.logger.Warn(ctx, "Failed to cache API description",
			"error", err.Error())
	}
	return api, nil
}

// fetchAPIDocument downloads the reference document
func (c *Client) fetchAPIDocument(ctx context.Context) ([]byte, error) {
	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIReferenceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create api description request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// router TLS settings apply, the session jar does not
	docs := &http.Client{Transport: c.httpClient.Transport}
	resp, err := docs.Do(req)
	if err != nil {
		return nil, &Error{Operation: "api description", Message: err.Error(), Kind: ErrConnection}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &Error{Operation: "api description", Message: err.Error(), Kind: ErrConnection}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Operation:   "api description",
			StatusCode:  resp.StatusCode,
			Message:     fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode),
			InternalMsg: string(data),
			Kind:        ErrConnection,
		}
	}
	return data, nil
}

// normalizeAPIDocument turns the published {"data": [module, ...]} document
// into an object keyed by sanitized module name
func normalizeAPIDocument(raw []byte) ([]byte, error) {
	if !gjson.ValidBytes(raw) {
		return nil, newError("api description", ErrMalformedAPIDescription, "document is not valid JSON")
	}
	data := gjson.GetBytes(raw, "data")
	if !data.IsArray() {
		return nil, newError("api description", ErrMalformedAPIDescription, `document has no "data" array`)
	}

	out := "{}"
	for i, entry := range data.Array() {
		name := entry.Get("module_name.0").String()
		if name == "" {
			return nil, newError("api description", ErrMalformedAPIDescription,
				fmt.Sprintf("entry %d has no module_name", i))
		}
		var err error
		out, err = sjson.SetRaw(out, gjson.Escape(SanitizeName(name)), entry.Raw)
		if err != nil {
			return nil, newError("api description", ErrMalformedAPIDescription, err.Error())
		}
	}
	return []byte(out), nil
}

// newAPI builds the call tree from a normalised description document
func newAPI(doc []byte, client *Client) (*API, error) {
	if !gjson.ValidBytes(doc) {
		return nil, newError("api description", ErrMalformedAPIDescription, "document is not valid JSON")
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, newError("api description", ErrMalformedAPIDescription, "document is not an object")
	}

	api := &API{modules: make(map[string]*APIModule)}
	var buildErr error

	root.ForEach(func(key, module gjson.Result) bool {
		name := key.String()
		groups := module.Get("case_groups_data")
		if !groups.IsObject() {
			buildErr = newError("api description", ErrMalformedAPIDescription,
				fmt.Sprintf("module %q has no case_groups_data", name))
			return false
		}

		defaultModule := stringList(module.Get("module_name"))
		m := &APIModule{Name: name, calls: make(map[string]*APICall)}

		groups.ForEach(func(callKey, schema gjson.Result) bool {
			callName := SanitizeName(callKey.String())
			call := &APICall{
				Name:       callName,
				Module:     stringList(schema.Get("module_name")),
				Title:      schema.Get("data.title").String(),
				InExample:  schema.Get("in_example").String(),
				OutExample: schema.Get("out_example").String(),
				client:     client,
			}
			if len(call.Module) == 0 {
				call.Module = defaultModule
			}
			if call.Title == "" {
				call.Title = callKey.String()
			}
			for _, p := range schema.Get("params").Array() {
				call.Params = append(call.Params, APIParam{
					Name:        p.Get("keyName").String(),
					Type:        p.Get("dataType__name").String(),
					Description: p.Get("desp").String(),
				})
			}
			m.calls[callName] = call
			return true
		})

		if len(m.calls) > 0 && len(defaultModule) == 0 {
			for _, call := range m.calls {
				if len(call.Module) == 0 {
					call.Module = []string{name}
				}
			}
		}
		api.modules[name] = m
		return true
	})

	if buildErr != nil {
		return nil, buildErr
	}
	return api, nil
}

// stringList converts a JSON string array into a slice
func stringList(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}

// Copyright 2025 The Vessel Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vessel-dev/vessel/transport"
)

// Test dispatches a single request through the full pipeline without
// starting a server and returns the completed exchange for inspection.
// Dispatch runs synchronously, so the exchange carries the final status,
// headers, and body when Test returns.
//
// Example:
//
//	ex := a.Test("GET", "/users/123")
//	assert.Equal(t, 200, ex.Status())
//	assert.JSONEq(t, `{"id":"123"}`, string(ex.ResponseBody()))
func (a *App) Test(method, path string, opts ...transport.TestOption) *transport.TestExchange {
	ex := transport.NewTestExchange(method, path, opts...)
	a.Dispatch(context.Background(), ex)

	return ex
}

// TestJSON dispatches a request with a JSON-encoded body and the matching
// Content-Type header.
//
// Example:
//
//	body := map[string]string{"name": "Alice"}
//	ex, err := a.TestJSON("POST", "/users", body)
func (a *App) TestJSON(method, path string, body any, opts ...transport.TestOption) (*transport.TestExchange, error) {
	var testOpts []transport.TestOption
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode JSON body: %w", err)
		}
		testOpts = append(testOpts, transport.WithBody(data))
	}
	testOpts = append(testOpts, transport.WithHeader("Content-Type", "application/json"))
	testOpts = append(testOpts, opts...)

	return a.Test(method, path, testOpts...), nil
}

// ExpectJSON asserts that a completed exchange carries the expected status
// and a JSON body, decoding the body into out. It accepts a minimal
// testing interface; for richer assertions use testify against the
// exchange directly.
//
// Example:
//
//	var user User
//	app.ExpectJSON(t, ex, 200, &user)
//	assert.Equal(t, "Alice", user.Name)
func ExpectJSON(t testingT, ex *transport.TestExchange, statusCode int, out any) {
	if ex.Status() != statusCode {
		t.Errorf("expected status %d, got %d", statusCode, ex.Status())
		return
	}

	contentType := ex.Header().Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
		return
	}

	body := ex.ResponseBody()
	if err := json.Unmarshal(body, out); err != nil {
		t.Errorf("failed to decode JSON: %v\nBody: %s", err, string(body))
		return
	}
}

// testingT is the minimal slice of testing.T that ExpectJSON needs.
type testingT interface {
	Errorf(format string, args ...any)
}

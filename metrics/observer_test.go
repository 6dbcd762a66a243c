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

package metrics

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vessel-dev/vessel/request"
	"github.com/vessel-dev/vessel/transport"
)

func newObservedRequest(method, path string, opts ...transport.TestOption) *request.Request {
	ex := transport.NewTestExchange(method, path, opts...)
	return request.New(ex.Request(), ex.Body())
}

func TestObserver_RoundTrip(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "observer-test")
	ctx := context.Background()

	req := newObservedRequest(http.MethodGet, "/orders/42",
		transport.WithHeader("User-Agent", "vessel-client/1.0"),
	)

	ctx, state := recorder.OnRequestStart(ctx, req)
	require.NotNil(t, state)
	require.IsType(t, (*RequestMetrics)(nil), state)

	recorder.OnRequestEnd(ctx, state, http.StatusOK, 128, "/orders/{id}")

	body := scrapeBody(t, recorder)

	assert.Contains(t, body, `http_method="GET"`)
	assert.Contains(t, body, `http_user_agent="vessel-client/1.0"`)
	assert.Contains(t, body, `http_route="/orders/{id}"`)
	assert.Contains(t, body, `http_status_code="200"`)
}

func TestObserver_ExcludedPathReturnsNilState(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "observer-exclude-test",
		WithExcludePaths("/healthz"),
	)

	req := newObservedRequest(http.MethodGet, "/healthz")

	_, state := recorder.OnRequestStart(context.Background(), req)
	assert.Nil(t, state)
}

func TestObserver_DisabledRecorderReturnsNilState(t *testing.T) {
	t.Parallel()

	recorder, err := New(WithDisabled())
	require.NoError(t, err)

	req := newObservedRequest(http.MethodGet, "/orders")

	_, state := recorder.OnRequestStart(context.Background(), req)
	assert.Nil(t, state)
}

func TestObserver_RecordsConfiguredHeaders(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "observer-headers-test",
		WithRecordHeaders("X-Tenant", "Authorization"),
	)
	ctx := context.Background()

	req := newObservedRequest(http.MethodPost, "/orders",
		transport.WithHeader("X-Tenant", "acme"),
		transport.WithHeader("Authorization", "Bearer secret"),
	)

	ctx, state := recorder.OnRequestStart(ctx, req)
	require.NotNil(t, state)
	recorder.OnRequestEnd(ctx, state, http.StatusCreated, 0, "/orders")

	body := scrapeBody(t, recorder)

	assert.Contains(t, body, `http_request_header_x_tenant="acme"`)
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "authorization")
}

func TestObserver_RecordsRequestSize(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "observer-size-test")
	ctx := context.Background()

	req := newObservedRequest(http.MethodPost, "/uploads",
		transport.WithBody([]byte(`{"name":"report.pdf"}`)),
	)

	ctx, state := recorder.OnRequestStart(ctx, req)
	require.NotNil(t, state)
	recorder.OnRequestEnd(ctx, state, http.StatusAccepted, 0, "/uploads")

	assert.Contains(t, scrapeBody(t, recorder), "http_request_size_bytes")
}

func TestObserver_EndIgnoresForeignState(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "observer-state-test")

	assert.NotPanics(t, func() {
		recorder.OnRequestEnd(context.Background(), nil, http.StatusOK, 0, "/")
		recorder.OnRequestEnd(context.Background(), "not-a-sample", http.StatusOK, 0, "/")
	})
}

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

package request

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vessel-dev/vessel/codec"
	"github.com/vessel-dev/vessel/codec/msgpack"
	"github.com/vessel-dev/vessel/transport"
)

func TestNew_ParsesMetadata(t *testing.T) {
	t.Parallel()

	ex := transport.NewTestExchange("POST", "/users",
		transport.WithRawQuery("page=2&tag=go&tag=http"),
		transport.WithHeader("Content-Type", "application/json"),
		transport.WithHeader("X-Tenant", "acme"),
		transport.WithBody([]byte(`{}`)))

	r := New(ex.Request(), ex.Body())

	assert.Equal(t, "POST", r.Method())
	assert.Equal(t, "/users", r.Path())
	assert.Equal(t, "HTTP/1.1", r.Proto())
	assert.Equal(t, "192.0.2.1:1234", r.RemoteAddr())
	assert.Equal(t, "application/json", r.ContentType())
	assert.Equal(t, int64(2), r.ContentLength())
	assert.Equal(t, "acme", r.Header().Get("X-Tenant"))
	assert.Equal(t, "2", r.Query("page"))
	assert.Equal(t, []string{"go", "http"}, r.QueryAll("tag"))
}

func TestRequest_Options(t *testing.T) {
	t.Parallel()

	ex := transport.NewTestExchange("GET", "/users/42")

	r := New(ex.Request(), ex.Body(),
		WithParams(map[string]string{"id": "42"}),
		WithRouteTemplate("/users/{id:int}"),
		WithID("req-123"))

	assert.Equal(t, "42", r.Param("id"))
	assert.Equal(t, "/users/{id:int}", r.RouteTemplate())
	assert.Equal(t, "req-123", r.ID())
	assert.Equal(t, map[string]string{"id": "42"}, r.Params())
}

func TestRequest_TypedParams(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ex := transport.NewTestExchange("GET", "/x")
	r := New(ex.Request(), ex.Body(), WithParams(map[string]string{
		"count": "42",
		"big":   "9007199254740993",
		"ratio": "2.5",
		"uid":   id.String(),
		"word":  "gopher",
	}))

	count, err := r.ParamInt("count")
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	big, err := r.ParamInt64("big")
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), big)

	ratio, err := r.ParamFloat64("ratio")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, ratio, 0.0001)

	uid, err := r.ParamUUID("uid")
	require.NoError(t, err)
	assert.Equal(t, id, uid)

	_, err = r.ParamInt("word")
	require.ErrorIs(t, err, ErrParamInvalid)

	_, err = r.ParamInt("absent")
	require.ErrorIs(t, err, ErrParamMissing)

	_, err = r.ParamUUID("word")
	require.ErrorIs(t, err, ErrParamInvalid)
}

func TestRequest_QueryHelpers(t *testing.T) {
	t.Parallel()

	ex := transport.NewTestExchange("GET", "/search",
		transport.WithRawQuery("page=3&active=true&bad=abc"))
	r := New(ex.Request(), ex.Body())

	assert.Equal(t, 3, r.QueryInt("page", 1))
	assert.Equal(t, 1, r.QueryInt("missing", 1))
	assert.Equal(t, 1, r.QueryInt("bad", 1))
	assert.True(t, r.QueryBool("active", false))
	assert.False(t, r.QueryBool("missing", false))
	assert.Equal(t, "fallback", r.QueryDefault("missing", "fallback"))
	assert.Equal(t, "3", r.QueryDefault("page", "fallback"))
}

func TestRequest_Cookies(t *testing.T) {
	t.Parallel()

	ex := transport.NewTestExchange("GET", "/",
		transport.WithHeader("Cookie", "session=abc123; theme=dark"))
	r := New(ex.Request(), ex.Body())

	session, err := r.Cookie("session")
	require.NoError(t, err)
	assert.Equal(t, "abc123", session)

	theme, err := r.Cookie("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)

	_, err = r.Cookie("absent")
	require.ErrorIs(t, err, http.ErrNoCookie)

	assert.Len(t, r.Cookies(), 2)
}

func TestRequest_MalformedQueryIsDropped(t *testing.T) {
	t.Parallel()

	ex := transport.NewTestExchange("GET", "/",
		transport.WithRawQuery("ok=1&bad=%zz"))
	r := New(ex.Request(), ex.Body())

	assert.Equal(t, "1", r.Query("ok"))
	assert.Empty(t, r.Query("bad"))
}

func TestJSON_DecodesIntoStruct(t *testing.T) {
	t.Parallel()

	type createUser struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	ex := transport.NewTestExchange("POST", "/users",
		transport.WithHeader("Content-Type", "application/json"),
		transport.WithBody([]byte(`{"name":"gopher","age":14}`)))
	r := New(ex.Request(), ex.Body())

	user, err := JSON[createUser](context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, createUser{Name: "gopher", Age: 14}, user)

	// The typed decode shares the body cache with the untyped accessors.
	v, err := r.JSON(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gopher", v.(map[string]any)["name"])
}

func TestJSON_StrictMode(t *testing.T) {
	t.Parallel()

	type createUser struct {
		Name string `json:"name"`
	}

	ex := transport.NewTestExchange("POST", "/users",
		transport.WithBody([]byte(`{"name":"gopher","extra":true}`)))
	r := New(ex.Request(), ex.Body())

	_, err := JSON[createUser](context.Background(), r, codec.WithDisallowUnknown())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, codec.MediaTypeJSON, decodeErr.ContentType)
}

func TestMsgPack_DecodesIntoStruct(t *testing.T) {
	t.Parallel()

	type event struct {
		Kind string `json:"kind"`
		Seq  int64  `json:"seq"`
	}

	payload, err := msgpack.Marshal(event{Kind: "created", Seq: 12}, msgpack.WithJSONTag())
	require.NoError(t, err)

	ex := transport.NewTestExchange("POST", "/events",
		transport.WithHeader("Content-Type", "application/msgpack"),
		transport.WithBody(payload))
	r := New(ex.Request(), ex.Body())

	got, err := MsgPack[event](context.Background(), r, msgpack.WithJSONTag())
	require.NoError(t, err)
	assert.Equal(t, event{Kind: "created", Seq: 12}, got)
}

func TestRequest_FormDelegate(t *testing.T) {
	t.Parallel()

	ex := transport.NewTestExchange("POST", "/submit",
		transport.WithHeader("Content-Type", "application/x-www-form-urlencoded"),
		transport.WithBody([]byte("name=gopher")))
	r := New(ex.Request(), ex.Body())

	form, err := r.Form(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gopher", form.Get("name"))
}

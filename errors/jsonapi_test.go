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

package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONAPI_Format_SingleError(t *testing.T) {
	t.Parallel()

	f := NewJSONAPI()

	fr := f.Format(formatRequest(t, "/articles"), errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, fr.Status)
	assert.Equal(t, "application/vnd.api+json; charset=utf-8", fr.ContentType)

	body, ok := fr.Body.(jsonAPIErrorResponse)
	require.True(t, ok)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "500", body.Errors[0].Status)
	assert.Equal(t, "Internal Server Error", body.Errors[0].Title)
	assert.Equal(t, "boom", body.Errors[0].Detail)
	assert.NotEmpty(t, body.Errors[0].ID)
}

func TestJSONAPI_Format_AppErrorCarriesMetaAndHeaders(t *testing.T) {
	t.Parallel()

	f := NewJSONAPI()
	appErr := Conflict("already exists").
		WithField("id", "a1").
		WithHeader("Location", "/articles/a1")

	fr := f.Format(nil, appErr)

	body, ok := fr.Body.(jsonAPIErrorResponse)
	require.True(t, ok)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "409", body.Errors[0].Status)
	assert.Equal(t, "already exists", body.Errors[0].Detail)
	assert.Equal(t, map[string]any{"id": "a1"}, body.Errors[0].Meta)
	assert.Equal(t, "/articles/a1", fr.Headers.Get("Location"))
}

func TestJSONAPI_Format_DetailSliceFansOut(t *testing.T) {
	t.Parallel()

	f := NewJSONAPI()
	err := &testErrorWithDetails{
		message: "validation failed",
		details: []map[string]any{
			{"field": "email", "code": "required", "message": "email is required"},
			{"field": "items.0.price", "message": "must be positive"},
		},
	}

	fr := f.Format(nil, err)

	body, ok := fr.Body.(jsonAPIErrorResponse)
	require.True(t, ok)
	require.Len(t, body.Errors, 2)

	first := body.Errors[0]
	require.NotNil(t, first.Source)
	assert.Equal(t, "/data/attributes/email", first.Source.Pointer)
	assert.Equal(t, "required", first.Code)
	assert.Equal(t, "email is required", first.Detail)

	second := body.Errors[1]
	require.NotNil(t, second.Source)
	assert.Equal(t, "/data/attributes/items/0/price", second.Source.Pointer)
	assert.Equal(t, "must be positive", second.Detail)
}

func TestJSONAPI_Format_NonSliceDetailsCollapse(t *testing.T) {
	t.Parallel()

	f := NewJSONAPI()
	err := &testErrorWithDetails{
		message: "invalid",
		details: map[string]any{"field": "email"},
	}

	fr := f.Format(nil, err)

	body, ok := fr.Body.(jsonAPIErrorResponse)
	require.True(t, ok)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "invalid", body.Errors[0].Detail)
	assert.Equal(t, map[string]any{"details": map[string]any{"field": "email"}}, body.Errors[0].Meta)
}

func TestJSONAPI_Format_CodeIncluded(t *testing.T) {
	t.Parallel()

	f := NewJSONAPI()

	fr := f.Format(nil, &testErrorWithCode{message: "denied", code: "ACL_DENIED"})

	body, ok := fr.Body.(jsonAPIErrorResponse)
	require.True(t, ok)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "ACL_DENIED", body.Errors[0].Code)
}

func TestFieldPointer_Conversions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"email", "/data/attributes/email"},
		{"items.0.price", "/data/attributes/items/0/price"},
		{"user.name", "/data/attributes/user/name"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, fieldPointer(tt.path))
	}
}

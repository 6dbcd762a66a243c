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
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRFC9457_Format_Defaults(t *testing.T) {
	t.Parallel()

	f := NewRFC9457("")
	req := formatRequest(t, "/users/42")

	fr := f.Format(req, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, fr.Status)
	assert.Equal(t, "application/problem+json; charset=utf-8", fr.ContentType)

	p, ok := fr.Body.(ProblemDetail)
	require.True(t, ok)
	assert.Equal(t, "about:blank", p.Type)
	assert.Equal(t, "Internal Server Error", p.Title)
	assert.Equal(t, http.StatusInternalServerError, p.Status)
	assert.Equal(t, "boom", p.Detail)
	assert.Equal(t, "/users/42", p.Instance)

	errorID, ok := p.Extensions["error_id"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(errorID, "err-"))
}

func TestRFC9457_Format_NilRequestHasNoInstance(t *testing.T) {
	t.Parallel()

	f := NewRFC9457("")

	fr := f.Format(nil, errors.New("boom"))

	p, ok := fr.Body.(ProblemDetail)
	require.True(t, ok)
	assert.Empty(t, p.Instance)
}

func TestRFC9457_Format_DisableErrorID(t *testing.T) {
	t.Parallel()

	f := &RFC9457{DisableErrorID: true}

	fr := f.Format(nil, errors.New("boom"))

	p, ok := fr.Body.(ProblemDetail)
	require.True(t, ok)
	assert.NotContains(t, p.Extensions, "error_id")
}

func TestRFC9457_Format_CodeBuildsTypeURI(t *testing.T) {
	t.Parallel()

	f := NewRFC9457("https://api.example.com/problems")

	fr := f.Format(nil, &testErrorWithCode{message: "denied", code: "QUOTA_EXCEEDED"})

	p, ok := fr.Body.(ProblemDetail)
	require.True(t, ok)
	assert.Equal(t, "https://api.example.com/problems/QUOTA_EXCEEDED", p.Type)
	assert.Equal(t, "QUOTA_EXCEEDED", p.Extensions["code"])
}

func TestRFC9457_Format_Resolvers(t *testing.T) {
	t.Parallel()

	f := &RFC9457{
		TypeResolver:     func(error) string { return "urn:problem:custom" },
		StatusResolver:   func(error) int { return http.StatusConflict },
		ErrorIDGenerator: func() string { return "err-fixed" },
	}

	fr := f.Format(nil, errors.New("boom"))

	p, ok := fr.Body.(ProblemDetail)
	require.True(t, ok)
	assert.Equal(t, "urn:problem:custom", p.Type)
	assert.Equal(t, http.StatusConflict, p.Status)
	assert.Equal(t, "Conflict", p.Title)
	assert.Equal(t, "err-fixed", p.Extensions["error_id"])
}

func TestRFC9457_Format_AppErrorFieldsBecomeExtensions(t *testing.T) {
	t.Parallel()

	f := &RFC9457{DisableErrorID: true}
	appErr := Conflict("version mismatch").
		WithField("expected", "v3").
		WithHeader("ETag", `"v3"`)

	fr := f.Format(formatRequest(t, "/docs/1"), appErr)

	p, ok := fr.Body.(ProblemDetail)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, p.Status)
	assert.Equal(t, "version mismatch", p.Detail)
	assert.Equal(t, "v3", p.Extensions["expected"])
	assert.Equal(t, `"v3"`, fr.Headers.Get("ETag"))
}

func TestRFC9457_Format_DetailsBecomeErrorsExtension(t *testing.T) {
	t.Parallel()

	f := &RFC9457{DisableErrorID: true}
	details := []map[string]any{{"field": "email", "message": "required"}}

	fr := f.Format(nil, &testErrorWithDetails{message: "invalid", details: details})

	p, ok := fr.Body.(ProblemDetail)
	require.True(t, ok)
	assert.Equal(t, details, p.Extensions["errors"])
}

func TestProblemDetail_MarshalInlinesExtensions(t *testing.T) {
	t.Parallel()

	p := ProblemDetail{
		Type:   "about:blank",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: "invalid payload",
		Extensions: map[string]any{
			"attempt": 2,
			"status":  "smuggled",
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "about:blank", m["type"])
	assert.Equal(t, "invalid payload", m["detail"])
	assert.EqualValues(t, 2, m["attempt"])
	// Reserved members cannot be overwritten by extensions.
	assert.EqualValues(t, http.StatusBadRequest, m["status"])
	assert.NotContains(t, m, "instance")
}

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
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vessel-dev/vessel/request"
)

// RFC9457 formats errors as RFC 9457 Problem Details with Content-Type
// "application/problem+json".
//
// Example:
//
//	formatter := errors.NewRFC9457("https://api.example.com/problems")
//	fr := formatter.Format(req, err)
//	// {"type":"about:blank","title":"Not Found","status":404,...}
type RFC9457 struct {
	// BaseURL is prepended to problem type slugs to create full URIs,
	// e.g. "https://api.example.com/problems" + "/QUOTA_EXCEEDED".
	BaseURL string

	// TypeResolver maps errors to problem type URIs. If nil, the
	// ErrorCode interface is used, defaulting to "about:blank".
	TypeResolver func(err error) string

	// StatusResolver determines the HTTP status from an error. If nil,
	// the ErrorType interface is honored and everything else is a 500.
	StatusResolver func(err error) int

	// ErrorIDGenerator generates correlation IDs for the error_id
	// extension. If nil, a random UUID is used.
	ErrorIDGenerator func() string

	// DisableErrorID turns off the error_id extension.
	DisableErrorID bool
}

// ProblemDetail is an RFC 9457 problem detail. Extensions are marshaled
// inline next to the standard members.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

// MarshalJSON merges the extensions into the problem object. Extension
// keys that collide with the standard member names are dropped.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	for k, v := range p.Extensions {
		if k != "type" && k != "title" && k != "status" && k != "detail" && k != "instance" {
			m[k] = v
		}
	}

	return json.Marshal(m)
}

// Format converts an error into an RFC 9457 Problem Details response.
// The request path becomes the instance URI. An *Error contributes its
// Fields as extensions and its Headers on the Response; other errors
// contribute through the ErrorDetails and ErrorCode interfaces.
func (f *RFC9457) Format(req *request.Request, err error) Response {
	status := f.determineStatus(err)

	p := ProblemDetail{
		Type:       f.determineType(err),
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Extensions: make(map[string]any),
	}
	if req != nil {
		p.Instance = req.Path()
	}

	if !f.DisableErrorID {
		if f.ErrorIDGenerator != nil {
			p.Extensions["error_id"] = f.ErrorIDGenerator()
		} else {
			p.Extensions["error_id"] = generateErrorID()
		}
	}

	var headers http.Header

	var appErr *Error
	if errors.As(err, &appErr) {
		for k, v := range appErr.Fields {
			p.Extensions[k] = v
		}
		headers = appErr.Headers
	} else {
		var detailed ErrorDetails
		if errors.As(err, &detailed) {
			if details := detailed.Details(); details != nil {
				p.Extensions["errors"] = details
			}
		}
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		p.Extensions["code"] = coded.Code()
	}

	return Response{
		Status:      status,
		ContentType: "application/problem+json; charset=utf-8",
		Body:        p,
		Headers:     headers,
	}
}

func (f *RFC9457) determineStatus(err error) int {
	if f.StatusResolver != nil {
		return f.StatusResolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

func (f *RFC9457) determineType(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		code := coded.Code()
		if f.BaseURL != "" {
			return f.BaseURL + "/" + code
		}

		return code
	}

	return "about:blank"
}

// generateErrorID returns a correlation ID for error tracking, falling
// back to a timestamp when the random source fails.
func generateErrorID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("err-%d", time.Now().UnixNano())
	}

	return "err-" + id.String()
}

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
	"strconv"
	"strings"

	"github.com/vessel-dev/vessel/request"
)

// JSONAPI formats errors per the JSON:API specification with
// Content-Type "application/vnd.api+json".
// See: https://jsonapi.org/format/#errors
type JSONAPI struct {
	// StatusResolver determines the HTTP status from an error. If nil,
	// the ErrorType interface is honored and everything else is a 500.
	StatusResolver func(err error) int
}

// jsonAPIError is a single member of the errors array.
type jsonAPIError struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status,omitempty"`
	Code   string         `json:"code,omitempty"`
	Title  string         `json:"title,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Source *jsonAPISource `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// jsonAPISource points at what caused the error.
type jsonAPISource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

type jsonAPIErrorResponse struct {
	Errors []jsonAPIError `json:"errors"`
}

// Format converts an error into a JSON:API error document. Slice-shaped
// details fan out into one error object per element; everything else
// renders as a single error object. An *Error contributes its Fields as
// meta and its Headers on the Response.
func (f *JSONAPI) Format(req *request.Request, err error) Response {
	status := f.determineStatus(err)

	var headers http.Header
	var apiErrors []jsonAPIError

	var appErr *Error
	var detailed ErrorDetails

	switch {
	case errors.As(err, &appErr):
		apiErrors = []jsonAPIError{{
			ID:     generateErrorID(),
			Status: strconv.Itoa(status),
			Title:  http.StatusText(status),
			Detail: appErr.Message,
			Meta:   appErr.Fields,
		}}
		headers = appErr.Headers
	case errors.As(err, &detailed):
		apiErrors = fanOutDetails(status, err, detailed.Details())
	default:
		apiErr := jsonAPIError{
			ID:     generateErrorID(),
			Status: strconv.Itoa(status),
			Title:  http.StatusText(status),
			Detail: err.Error(),
		}
		var coded ErrorCode
		if errors.As(err, &coded) {
			apiErr.Code = coded.Code()
		}
		apiErrors = []jsonAPIError{apiErr}
	}

	return Response{
		Status:      status,
		ContentType: "application/vnd.api+json; charset=utf-8",
		Body:        jsonAPIErrorResponse{Errors: apiErrors},
		Headers:     headers,
	}
}

// fanOutDetails turns slice-shaped details into one JSON:API error per
// element. Details are genericized through a JSON round trip so any
// field-error struct works; elements may carry "field" (or "path"),
// "code", "message", and "meta" keys. Non-slice details collapse into a
// single error with the details as meta.
func fanOutDetails(status int, err error, details any) []jsonAPIError {
	data, marshalErr := json.Marshal(details)
	if marshalErr == nil {
		var generic any
		if json.Unmarshal(data, &generic) == nil {
			if elements, ok := generic.([]any); ok && len(elements) > 0 {
				out := make([]jsonAPIError, 0, len(elements))
				for _, element := range elements {
					out = append(out, detailError(status, err, element))
				}

				return out
			}
		}
	}

	single := jsonAPIError{
		ID:     generateErrorID(),
		Status: strconv.Itoa(status),
		Title:  http.StatusText(status),
		Detail: err.Error(),
	}
	if details != nil {
		single.Meta = map[string]any{"details": details}
	}

	return []jsonAPIError{single}
}

func detailError(status int, err error, element any) jsonAPIError {
	apiErr := jsonAPIError{
		ID:     generateErrorID(),
		Status: strconv.Itoa(status),
		Title:  http.StatusText(status),
	}

	if m, ok := element.(map[string]any); ok {
		field, _ := m["field"].(string)
		if field == "" {
			field, _ = m["path"].(string)
		}
		if field != "" {
			apiErr.Source = &jsonAPISource{Pointer: fieldPointer(field)}
		}
		if code, ok := m["code"].(string); ok && code != "" {
			apiErr.Code = code
		}
		if message, ok := m["message"].(string); ok && message != "" {
			apiErr.Detail = message
		}
		if meta, ok := m["meta"].(map[string]any); ok && len(meta) > 0 {
			apiErr.Meta = meta
		}
	}

	if apiErr.Detail == "" {
		apiErr.Detail = err.Error()
	}

	return apiErr
}

// fieldPointer converts a dotted field path into a JSON Pointer under
// the JSON:API attributes object.
//
// Example conversions:
//   - "email" -> "/data/attributes/email"
//   - "items.0.price" -> "/data/attributes/items/0/price"
func fieldPointer(path string) string {
	if path == "" {
		return ""
	}

	return "/data/attributes/" + strings.ReplaceAll(path, ".", "/")
}

func (f *JSONAPI) determineStatus(err error) int {
	if f.StatusResolver != nil {
		return f.StatusResolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

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

	"github.com/vessel-dev/vessel/request"
)

// Simple formats errors as flat JSON objects and is the default
// formatter. The body always carries a "message" key:
//
//	{"message": "user not found"}
//
// For an *Error, its Fields are merged into the body alongside the
// message and its Headers are carried on the Response:
//
//	errors.BadRequest("validation failed").WithField("field", "email")
//	// {"field": "email", "message": "validation failed"}
type Simple struct {
	// StatusResolver determines the HTTP status from an error. If nil,
	// the ErrorType interface is honored and everything else is a 500.
	StatusResolver func(err error) int
}

// Format converts an error into a flat JSON response.
func (f *Simple) Format(req *request.Request, err error) Response {
	status := f.determineStatus(err)

	body := map[string]any{
		"message": err.Error(),
	}

	var headers http.Header

	var appErr *Error
	if errors.As(err, &appErr) {
		for k, v := range appErr.Fields {
			if k != "message" {
				body[k] = v
			}
		}
		headers = appErr.Headers
	} else {
		var detailed ErrorDetails
		if errors.As(err, &detailed) {
			if details := detailed.Details(); details != nil {
				body["details"] = details
			}
		}
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		body["code"] = coded.Code()
	}

	return Response{
		Status:      status,
		ContentType: "application/json; charset=utf-8",
		Body:        body,
		Headers:     headers,
	}
}

func (f *Simple) determineStatus(err error) int {
	if f.StatusResolver != nil {
		return f.StatusResolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

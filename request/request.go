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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/vessel-dev/vessel/codec"
	"github.com/vessel-dev/vessel/codec/msgpack"
	"github.com/vessel-dev/vessel/transport"
)

// Request is the single object handlers receive. Metadata (headers, query,
// cookies, path parameters) is parsed at construction; the body stays lazy
// behind [Request.Body].
//
// Thread safety: a Request belongs to the goroutine handling it.
type Request struct {
	method        string
	path          string
	proto         string
	remoteAddr    string
	id            string
	routeTemplate string
	header        http.Header
	params        map[string]string
	rawQuery      string
	query         url.Values
	cookies       []*http.Cookie
	registry      *codec.Registry
	body          *Body
}

// Option configures a Request.
type Option func(*Request)

// WithParams sets the path parameters captured by route matching.
func WithParams(params map[string]string) Option {
	return func(r *Request) {
		r.params = params
	}
}

// WithRouteTemplate records the route pattern the request matched, e.g.
// "/users/{id:int}". Useful for logging and metrics labels that must not
// explode per-path.
func WithRouteTemplate(template string) Option {
	return func(r *Request) {
		r.routeTemplate = template
	}
}

// WithID sets the request identifier.
func WithID(id string) Option {
	return func(r *Request) {
		r.id = id
	}
}

// WithCodecs sets the codec registry the body's Decode and DecodeTo use.
func WithCodecs(reg *codec.Registry) Option {
	return func(r *Request) {
		r.registry = reg
	}
}

// New assembles a Request from transport metadata and a body source.
//
// Query parameters and cookies are parsed here, once; malformed query
// pairs are dropped rather than failing the request.
func New(info *transport.RequestInfo, body transport.BodyReader, opts ...Option) *Request {
	query, _ := url.ParseQuery(info.RawQuery)

	r := &Request{
		method:     info.Method,
		path:       info.Path,
		proto:      info.Proto,
		remoteAddr: info.RemoteAddr,
		header:     info.Header,
		rawQuery:   info.RawQuery,
		query:      query,
		cookies:    parseCookies(info.Header),
	}
	for _, opt := range opts {
		opt(r)
	}

	var bodyOpts []BodyOption
	if r.registry != nil {
		bodyOpts = append(bodyOpts, WithRegistry(r.registry))
	}
	r.body = NewBody(body, info.Header.Get("Content-Type"), info.ContentLength, bodyOpts...)

	return r
}

// parseCookies reads the Cookie headers the way net/http does.
func parseCookies(h http.Header) []*http.Cookie {
	if len(h.Values("Cookie")) == 0 {
		return nil
	}

	return (&http.Request{Header: h}).Cookies()
}

// Method returns the uppercase HTTP method verb.
func (r *Request) Method() string { return r.method }

// Path returns the decoded request path, without the query string.
func (r *Request) Path() string { return r.path }

// Proto returns the protocol version string, e.g. "HTTP/1.1".
func (r *Request) Proto() string { return r.proto }

// RemoteAddr returns the network address of the client, when known.
func (r *Request) RemoteAddr() string { return r.remoteAddr }

// ID returns the request identifier, or "" when none was assigned.
func (r *Request) ID() string { return r.id }

// RouteTemplate returns the route pattern the request matched, e.g.
// "/users/{id:int}", or "" when the request was built outside routing.
func (r *Request) RouteTemplate() string { return r.routeTemplate }

// Header returns the request headers. The map is shared; treat it as
// read-only.
func (r *Request) Header() http.Header { return r.header }

// ContentType returns the Content-Type header value, unparsed.
func (r *Request) ContentType() string { return r.header.Get("Content-Type") }

// ContentLength returns the declared body length, or -1 when unknown.
func (r *Request) ContentLength() int64 { return r.body.DeclaredLength() }

// Param returns the path parameter captured under name, or "" when the
// route has no such parameter.
//
// Example:
//
//	// Route: /users/{id}
//	id := r.Param("id")
func (r *Request) Param(name string) string { return r.params[name] }

// Params returns the captured path parameters. The map is shared; treat it
// as read-only.
func (r *Request) Params() map[string]string { return r.params }

// ParamInt parses a path parameter as an int.
// Returns an error if the parameter is missing or cannot be parsed.
//
// Example:
//
//	id, err := r.ParamInt("id")
//	if err != nil {
//	    return nil, errors.BadRequest("id must be an integer")
//	}
func (r *Request) ParamInt(name string) (int, error) {
	s, ok := r.params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}

	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}

	return val, nil
}

// ParamInt64 parses a path parameter as an int64.
// Returns an error if the parameter is missing or cannot be parsed.
func (r *Request) ParamInt64(name string) (int64, error) {
	s, ok := r.params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}

	return val, nil
}

// ParamFloat64 parses a path parameter as a float64.
// Returns an error if the parameter is missing or cannot be parsed.
func (r *Request) ParamFloat64(name string) (float64, error) {
	s, ok := r.params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}

	return val, nil
}

// ParamUUID parses a path parameter as a UUID.
// Returns an error if the parameter is missing or is not a valid UUID.
func (r *Request) ParamUUID(name string) (uuid.UUID, error) {
	s, ok := r.params[name]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}

	val, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}

	return val, nil
}

// RawQuery returns the unparsed query string, without the leading '?'.
func (r *Request) RawQuery() string { return r.rawQuery }

// Query returns the first value for the query parameter, or "".
func (r *Request) Query(name string) string { return r.query.Get(name) }

// QueryDefault returns the first value for the query parameter, or def
// when absent.
func (r *Request) QueryDefault(name, def string) string {
	if !r.query.Has(name) {
		return def
	}

	return r.query.Get(name)
}

// QueryAll returns all values for the query parameter.
func (r *Request) QueryAll(name string) []string { return r.query[name] }

// QueryValues returns the parsed query parameters. The map is shared;
// treat it as read-only.
func (r *Request) QueryValues() url.Values { return r.query }

// QueryInt parses a query parameter as an int, returning def when the
// parameter is absent or malformed.
func (r *Request) QueryInt(name string, def int) int {
	s := r.query.Get(name)
	if s == "" {
		return def
	}

	val, err := strconv.Atoi(s)
	if err != nil {
		return def
	}

	return val
}

// QueryBool parses a query parameter as a bool, returning def when the
// parameter is absent or malformed. Accepts the strconv.ParseBool forms.
func (r *Request) QueryBool(name string, def bool) bool {
	s := r.query.Get(name)
	if s == "" {
		return def
	}

	val, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}

	return val
}

// Cookie returns the value of the named cookie, or http.ErrNoCookie when
// the request has no such cookie.
func (r *Request) Cookie(name string) (string, error) {
	for _, c := range r.cookies {
		if c.Name == name {
			return c.Value, nil
		}
	}

	return "", http.ErrNoCookie
}

// Cookies returns the cookies sent with the request.
func (r *Request) Cookies() []*http.Cookie { return r.cookies }

// Body returns the lazily-read request body.
func (r *Request) Body() *Body { return r.body }

// Stream returns an incremental reader over the body. See [Body.Stream].
func (r *Request) Stream(ctx context.Context) (io.Reader, error) { return r.body.Stream(ctx) }

// Bytes returns the full body, buffered once. See [Body.Bytes].
func (r *Request) Bytes(ctx context.Context) ([]byte, error) { return r.body.Bytes(ctx) }

// JSON decodes the body as JSON into an untyped value. See [Body.JSON].
func (r *Request) JSON(ctx context.Context) (any, error) { return r.body.JSON(ctx) }

// MsgPack decodes the body as MessagePack into an untyped value. See
// [Body.MsgPack].
func (r *Request) MsgPack(ctx context.Context) (any, error) { return r.body.MsgPack(ctx) }

// Form parses the body as form data. See [Body.Form].
func (r *Request) Form(ctx context.Context) (*codec.Form, error) { return r.body.Form(ctx) }

// Decode decodes the body per its declared content type. See [Body.Decode].
func (r *Request) Decode(ctx context.Context) (any, error) { return r.body.Decode(ctx) }

// DecodeTo decodes the body per its declared content type into out. See
// [Body.DecodeTo].
func (r *Request) DecodeTo(ctx context.Context, out any) error { return r.body.DecodeTo(ctx, out) }

// JSON decodes the request body as JSON into type T. The body is buffered
// through the request's cache, so mixing with other accessors is safe.
//
// Example:
//
//	user, err := request.JSON[CreateUserRequest](ctx, r)
//
//	// Strict mode
//	user, err := request.JSON[CreateUserRequest](ctx, r, codec.WithDisallowUnknown())
func JSON[T any](ctx context.Context, r *Request, opts ...codec.Option) (T, error) {
	var result T

	data, err := r.Bytes(ctx)
	if err != nil {
		return result, err
	}

	result, err = codec.JSON[T](data, opts...)
	if err != nil {
		return result, &DecodeError{ContentType: codec.MediaTypeJSON, Err: err}
	}

	return result, nil
}

// MsgPack decodes the request body as MessagePack into type T.
//
// Example:
//
//	msg, err := request.MsgPack[Message](ctx, r, msgpack.WithJSONTag())
func MsgPack[T any](ctx context.Context, r *Request, opts ...msgpack.Option) (T, error) {
	var result T

	data, err := r.Bytes(ctx)
	if err != nil {
		return result, err
	}

	result, err = msgpack.MsgPack[T](data, opts...)
	if err != nil {
		return result, &DecodeError{ContentType: codec.MediaTypeMsgPack, Err: err}
	}

	return result, nil
}

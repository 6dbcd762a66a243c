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

package nethttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"

	"github.com/vessel-dev/vessel/transport"
)

// serveEcho drains Accept until the stream ends, answering every exchange
// by echoing the request body. Request metadata lands in X-Echo-* response
// headers so clients can assert on what the bridge delivered.
func serveEcho(srv *Server) {
	go func() {
		for {
			ex, err := srv.Accept(context.Background())
			if err != nil {
				return
			}
			go echoExchange(ex)
		}
	}()
}

func echoExchange(ex transport.Exchange) {
	ctx := context.Background()

	var body []byte
	reader := ex.Body()
	for {
		chunk, err := reader.Read(ctx)
		body = append(body, chunk.Data...)
		if err != nil || !chunk.More {
			break
		}
	}

	info := ex.Request()
	header := make(http.Header)
	header.Set("Content-Type", "text/plain")
	header.Set("X-Echo-Method", info.Method)
	header.Set("X-Echo-Proto", info.Proto)
	header.Set("X-Echo-Query", info.RawQuery)
	header.Set("X-Echo-Host", info.Header.Get("Host"))

	_ = ex.WriteStart(ctx, http.StatusOK, header)
	_ = ex.WriteChunk(ctx, body, true)
}

func TestServer_EchoRoundTrip(t *testing.T) {
	t.Parallel()

	srv := NewServer("")
	serveEcho(srv)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	resp, err := http.Post(ts.URL+"/echo?q=1", "text/plain", strings.NewReader("hello bridge"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello bridge", string(body))
	assert.Equal(t, "POST", resp.Header.Get("X-Echo-Method"))
	assert.Equal(t, "q=1", resp.Header.Get("X-Echo-Query"))
}

func TestServer_DeliversHostHeader(t *testing.T) {
	t.Parallel()

	srv := NewServer("")
	serveEcho(srv)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	// net/http strips Host from Header; the bridge restores it.
	wantHost := strings.TrimPrefix(ts.URL, "http://")
	assert.Equal(t, wantHost, resp.Header.Get("X-Echo-Host"))
}

func TestServer_H2CPriorKnowledge(t *testing.T) {
	t.Parallel()

	srv := NewServer("", WithH2C())
	serveEcho(srv)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	client := &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HTTP/2.0", resp.Proto)
	assert.Equal(t, "HTTP/2.0", resp.Header.Get("X-Echo-Proto"))
}

func TestServer_RequestMetadata(t *testing.T) {
	t.Parallel()

	srv := NewServer("")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	infoCh := make(chan transport.RequestInfo, 1)
	go func() {
		ex, err := srv.Accept(context.Background())
		if err != nil {
			return
		}
		infoCh <- *ex.Request()
		_ = ex.WriteStart(context.Background(), http.StatusNoContent, nil)
		_ = ex.WriteChunk(context.Background(), nil, true)
	}()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/items/7?page=2&page=3", strings.NewReader("payload"))
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	info := <-infoCh
	assert.Equal(t, "PUT", info.Method)
	assert.Equal(t, "/items/7", info.Path)
	assert.Equal(t, "page=2&page=3", info.RawQuery)
	assert.Equal(t, int64(7), info.ContentLength)
	assert.Equal(t, "req-42", info.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, info.RemoteAddr)
}

func TestServer_LargeBodyIntegrity(t *testing.T) {
	t.Parallel()

	srv := NewServer("")
	serveEcho(srv)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	// Large enough to arrive in several reads.
	payload := bytes.Repeat([]byte("0123456789abcdef"), 16*1024) // 256 KB

	resp, err := http.Post(ts.URL+"/", "application/octet-stream", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	echoed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, echoed)
}

func TestServer_WriteOrdering(t *testing.T) {
	t.Parallel()

	srv := NewServer("")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	exCh := make(chan transport.Exchange, 1)
	go func() {
		ex, err := srv.Accept(context.Background())
		if err != nil {
			return
		}
		exCh <- ex
	}()

	respCh := make(chan error, 1)
	go func() {
		resp, err := http.Get(ts.URL + "/")
		if resp != nil {
			resp.Body.Close()
		}
		respCh <- err
	}()

	ex := <-exCh
	ctx := context.Background()

	err := ex.WriteChunk(ctx, []byte("early"), false)
	assert.ErrorIs(t, err, transport.ErrResponseNotStarted)

	require.NoError(t, ex.WriteStart(ctx, http.StatusOK, nil))
	assert.ErrorIs(t, ex.WriteStart(ctx, http.StatusOK, nil), transport.ErrResponseStarted)

	require.NoError(t, ex.WriteChunk(ctx, []byte("done"), true))
	assert.ErrorIs(t, ex.WriteChunk(ctx, []byte("late"), true), transport.ErrResponseEnded)

	require.NoError(t, <-respCh)
}

func TestServer_GracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := NewServer("127.0.0.1:0")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	require.Eventually(t, func() bool {
		return srv.Addr() != nil
	}, 2*time.Second, 10*time.Millisecond)
	base := fmt.Sprintf("http://%s", srv.Addr())

	type result struct {
		status int
		body   string
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := http.Get(base + "/")
		if err != nil {
			resCh <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		resCh <- result{status: resp.StatusCode, body: string(body)}
	}()

	ex, err := srv.Accept(context.Background())
	require.NoError(t, err)

	// Shutdown must wait for the in-flight exchange before ending the
	// Accept stream.
	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- srv.Shutdown(context.Background())
	}()

	ctx := context.Background()
	require.NoError(t, ex.WriteStart(ctx, http.StatusOK, nil))
	require.NoError(t, ex.WriteChunk(ctx, []byte("drained"), true))

	require.NoError(t, <-shutdownErr)

	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "drained", res.body)

	_, err = srv.Accept(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	assert.ErrorIs(t, <-serveErr, http.ErrServerClosed)
}

func TestServer_ListenErrorEndsAcceptStream(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln.Addr().String())
	require.Error(t, srv.ListenAndServe())

	_, err = srv.Accept(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestServer_RefusesDuringShutdown(t *testing.T) {
	t.Parallel()

	srv := NewServer("")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.NoError(t, srv.Shutdown(context.Background()))

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_AcceptHonorsContext(t *testing.T) {
	t.Parallel()

	srv := NewServer("")
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.Accept(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package elisahttp

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/matta/elisa/internal/apierr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordRequest returns a server that stores the last request's headers.
func recordRequest(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()
	var h http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h = r.Header.Clone()
	}))
	t.Cleanup(srv.Close)
	return srv, &h
}

func TestBasicAuth(t *testing.T) {
	srv, h := recordRequest(t)
	client, err := New(Options{User: "rmurillo", Password: "secret"})
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header = *h
	user, pass, ok := req.BasicAuth()
	assert.True(t, ok, "no basic authorization in %v", *h)
	assert.Equal(t, "rmurillo", user)
	assert.Equal(t, "secret", pass)
}

func TestTokenCommand(t *testing.T) {
	srv, h := recordRequest(t)
	client, err := New(Options{TokenCommand: "echo '  tok123  '"})
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer tok123", h.Get("Authorization"))
}

func TestTokenCommandFailure(t *testing.T) {
	client, err := New(Options{TokenCommand: "exit 3"})
	require.NoError(t, err)
	_, err = client.Get("http://127.0.0.1:1/")
	var ae *apierr.AuthenticationError
	assert.True(t, errors.As(err, &ae), "Get() = %v, want an AuthenticationError", err)
}

func TestSSOCookie(t *testing.T) {
	srv, h := recordRequest(t)
	cookies := "# Netscape HTTP Cookie File\n" +
		"127.0.0.1\tFALSE\t/\tFALSE\t0\tother\tignored\n" +
		"#HttpOnly_127.0.0.1\tFALSE\t/\tFALSE\t0\t_shibsession_abc\tsessionvalue\n"
	path := filepath.Join(t.TempDir(), "cookie.txt")
	require.NoError(t, os.WriteFile(path, []byte(cookies), 0o600))

	client, err := New(Options{SSOCookieFile: path, User: "unused"})
	require.NoError(t, err)
	resp, err := client.Get(srv.URL + "/elisa/api/mt")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "_shibsession_abc=sessionvalue", h.Get("Cookie"))
	assert.Empty(t, h.Get("Authorization"))
}

func TestSSOCookieUnreadable(t *testing.T) {
	_, err := New(Options{SSOCookieFile: filepath.Join(t.TempDir(), "missing")})
	var ae *apierr.AuthenticationError
	assert.True(t, errors.As(err, &ae), "New() = %v, want an AuthenticationError", err)
}

func TestParseCookieFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		".cern.ch\tTRUE\t/\tTRUE\t1700000000\tname\tvalue\r\n\n# comment\n"), 0o600))
	got, err := parseCookieFile(path)
	require.NoError(t, err)
	assert.Equal(t, []cookieLine{{
		domain: ".cern.ch", path: "/", secure: true, name: "name", value: "value",
	}}, got)

	require.NoError(t, os.WriteFile(path, []byte("bad line\n"), 0o600))
	_, err = parseCookieFile(path)
	assert.Error(t, err)
}

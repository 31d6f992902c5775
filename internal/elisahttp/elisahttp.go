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

/*
Package elisahttp builds the *http.Client used to talk to the logbook
server.

Three ways of authenticating are supported, tried in this order:

1) an SSO cookie file, in the Netscape format written by
   auth-get-sso-cookie.  Only the _shibsession cookies are used when the
   file has any.

2) a token command: an external program that prints a bearer token on
   its standard output.

3) LDAP credentials sent with HTTP basic authentication.

BUGS:

The token command does not report the token's expire time, so tokens are
re-fetched every 5 minutes whether or not they expired.  A token revoked
by the server before then makes requests fail until the next fetch.
*/
package elisahttp

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/tracehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

// Options selects how the client authenticates and what its transport
// does.
type Options struct {
	// SSOCookieFile is the path of an SSO cookie file.
	SSOCookieFile string

	// TokenCommand is run, through the shell, to obtain a bearer token.
	TokenCommand string

	// User and Password are LDAP credentials.
	User     string
	Password string

	// InsecureSkipVerify disables TLS certificate verification.  The
	// logbook servers commonly run with certificates from the CERN
	// authority, which is seldom installed.
	InsecureSkipVerify bool

	// Trace logs every request and response at debug level.
	Trace bool

	Log *zap.SugaredLogger
}

// tokenTTL is how long a token from a token command is reused.
const tokenTTL = 5 * time.Minute

// commandTokenSource runs an external program to retrieve an OAuth 2.0
// bearer token.
type commandTokenSource struct {
	// The command line, run by /bin/sh.
	command string
}

// Token returns a new token by executing the command.  Satisfies
// oauth2.TokenSource.
func (s *commandTokenSource) Token() (*oauth2.Token, error) {
	cmd := exec.Command("/bin/sh", "-c", s.command)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &apierr.AuthenticationError{
			Reason: "token command failed: " + err.Error() + ": " + strings.TrimSpace(stderr.String()),
		}
	}
	accessToken := strings.TrimSpace(out.String())
	if accessToken == "" {
		return nil, &apierr.AuthenticationError{Reason: "token command printed no token"}
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(tokenTTL),
	}, nil
}

// basicTokenSource returns a token that oauth2.Transport sends as HTTP
// basic authentication.
func basicTokenSource(user, password string) oauth2.TokenSource {
	cred := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred,
		TokenType:   "Basic",
	})
}

// New returns a new HTTP client authenticated as opts says.  With no
// credentials at all the client is anonymous.
func New(opts Options) (*http.Client, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	var rt http.RoundTripper = base
	if opts.Trace {
		rt = tracehttp.Wrap(rt, log)
	}

	client := &http.Client{Transport: rt}
	switch {
	case opts.SSOCookieFile != "":
		jar, err := loadCookieJar(opts.SSOCookieFile)
		if err != nil {
			return nil, err
		}
		log.Debugw("authenticating with sso cookie", "file", opts.SSOCookieFile)
		client.Jar = jar
	case opts.TokenCommand != "":
		log.Debugw("authenticating with token command")
		client.Transport = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, &commandTokenSource{command: opts.TokenCommand}),
			Base:   rt,
		}
	case opts.User != "":
		log.Debugw("authenticating with ldap credentials", "user", opts.User)
		client.Transport = &oauth2.Transport{
			Source: basicTokenSource(opts.User, opts.Password),
			Base:   rt,
		}
	}
	return client, nil
}

// cookieLine is one cookie of a Netscape cookie file.
type cookieLine struct {
	domain   string
	hostOnly bool
	path     string
	secure   bool
	httpOnly bool
	name     string
	value    string
}

const httpOnlyPrefix = "#HttpOnly_"

func parseCookieFile(path string) ([]cookieLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &apierr.AuthenticationError{
			Reason: "the cookie containing the sso authentication could not be read: " + err.Error(),
		}
	}
	defer f.Close()

	var cookies []cookieLine
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")
		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, &apierr.AuthenticationError{
				Reason: "malformed line in cookie file " + path + ": " + line,
			}
		}
		cookies = append(cookies, cookieLine{
			domain:   fields[0],
			hostOnly: strings.EqualFold(fields[1], "FALSE"),
			path:     fields[2],
			secure:   strings.EqualFold(fields[3], "TRUE"),
			httpOnly: httpOnly,
			name:     fields[5],
			value:    fields[6],
		})
	}
	if err := s.Err(); err != nil {
		return nil, &apierr.AuthenticationError{Reason: "reading cookie file: " + err.Error()}
	}
	return cookies, nil
}

// loadCookieJar reads a cookie file into a jar.  Expire times are
// ignored: the server decides whether a session is still valid.
func loadCookieJar(path string) (http.CookieJar, error) {
	lines, err := parseCookieFile(path)
	if err != nil {
		return nil, err
	}
	var shib []cookieLine
	for _, c := range lines {
		if strings.HasPrefix(c.name, "_shibsession") {
			shib = append(shib, c)
		}
	}
	if len(shib) > 0 {
		lines = shib
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}
	for _, c := range lines {
		host := strings.TrimPrefix(c.domain, ".")
		u := &url.URL{Scheme: "https", Host: host, Path: c.path}
		cookie := &http.Cookie{
			Name:     c.name,
			Value:    c.value,
			Path:     c.path,
			Secure:   c.secure,
			HttpOnly: c.httpOnly,
		}
		if !c.hostOnly {
			cookie.Domain = host
		}
		jar.SetCookies(u, []*http.Cookie{cookie})
	}
	return jar, nil
}

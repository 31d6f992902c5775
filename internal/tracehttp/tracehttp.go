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

package tracehttp

import (
	"net/http"
	"net/http/httputil"
	"strings"

	"go.uber.org/zap"
)

// traceTransport is an http.RoundTripper that logs the request and
// response at debug level while delegating the real work to another
// http.RoundTripper.
type traceTransport struct {
	delegate http.RoundTripper
	log      *zap.SugaredLogger
}

// RoundTrip logs a dump of the request and response while delegating the
// round trip to the delegate.  Multipart request bodies are left out of
// the dump so that uploads keep streaming.
func (t *traceTransport) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	body := !strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/")
	dump, dumpErr := httputil.DumpRequestOut(req, body)
	if dumpErr == nil {
		t.log.Debugw("http request", "dump", string(dump))
	}
	resp, err = t.delegate.RoundTrip(req)
	if err != nil {
		t.log.Debugw("http round trip failed", "url", req.URL.String(), "error", err)
		return resp, err
	}
	dump, dumpErr = httputil.DumpResponse(resp, true)
	if dumpErr == nil {
		t.log.Debugw("http response", "dump", string(dump))
	}
	return resp, err
}

// Wrap returns d with tracing to log.  A nil d means
// http.DefaultTransport.
func Wrap(d http.RoundTripper, log *zap.SugaredLogger) http.RoundTripper {
	if d == nil {
		d = http.DefaultTransport
	}
	return &traceTransport{delegate: d, log: log}
}

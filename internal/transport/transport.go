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

// Package transport issues the HTTP requests of the logbook client and
// turns failed responses into errors.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/matta/elisa/internal/apierr"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const xmlContentType = "application/xml"

// Transport sends requests through an *http.Client, which carries the
// authentication.
type Transport struct {
	client *http.Client
	log    *zap.SugaredLogger
}

// New returns a Transport using client, or http.DefaultClient if client
// is nil.
func New(client *http.Client, log *zap.SugaredLogger) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Transport{client: client, log: log}
}

// Get fetches url.
func (t *Transport) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apierr.Argumentf("bad request URL %q: %v", url, err)
	}
	req.Header.Set("Accept", xmlContentType)
	return t.do(req)
}

// Post sends an XML document to url.
func (t *Transport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return t.send(ctx, http.MethodPost, url, body)
}

// Put sends an XML document to url.
func (t *Transport) Put(ctx context.Context, url string, body []byte) ([]byte, error) {
	return t.send(ctx, http.MethodPut, url, body)
}

func (t *Transport) send(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, apierr.Argumentf("bad request URL %q: %v", url, err)
	}
	req.Header.Set("Accept", xmlContentType)
	req.Header.Set("Content-Type", xmlContentType)
	return t.do(req)
}

// Part is the XML document sent along with the files of a multipart
// request.
type Part struct {
	// Name is the form field name, e.g. "message".
	Name    string
	Content []byte
}

// Multipart posts a multipart/form-data request holding part, when not
// nil, followed by the files at paths as fields file0, file1 and so on.
//
// Every file is opened before anything is sent.  If one cannot be opened
// the request is not made and an *apierr.ArgumentError is returned.
func (t *Transport) Multipart(ctx context.Context, url string, part *Part, paths []string) ([]byte, error) {
	files := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, apierr.Argumentf("cannot open attachment %q: %v", p, err)
		}
		files = append(files, f)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, apierr.Argumentf("bad request URL %q: %v", url, err)
	}
	req.Header.Set("Accept", xmlContentType)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var g errgroup.Group
	g.Go(func() error {
		err := writeParts(mw, part, files)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
		return err
	})
	body, err := t.do(req)
	// Unblocks the writer if the request ended before the body was read.
	pr.Close()
	werr := g.Wait()
	if err != nil {
		return nil, err
	}
	if werr != nil {
		return nil, errors.Wrap(werr, "writing multipart body")
	}
	return body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeParts(mw *multipart.Writer, part *Part, files []*os.File) error {
	if part != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(part.Name)))
		h.Set("Content-Type", xmlContentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := w.Write(part.Content); err != nil {
			return err
		}
	}
	for i, f := range files {
		name := filepath.Base(f.Name())
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file%d"; filename="%s"`,
			i, quoteEscaper.Replace(name)))
		h.Set("Content-Type", contentType(name))
		w, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, f); err != nil {
			return errors.Wrapf(err, "reading %s", f.Name())
		}
	}
	return nil
}

// contentType guesses a file's media type from its extension.
func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (t *Transport) do(req *http.Request) ([]byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		var ae *apierr.AuthenticationError
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, &apierr.TransportError{Reason: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierr.TransportError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Reason:     "reading response: " + err.Error(),
		}
	}
	t.log.Debugw("http", "method", req.Method, "url", req.URL.String(),
		"status", resp.StatusCode, "bytes", len(body))
	if !success(resp.StatusCode) {
		return nil, apierr.NewStatusError(resp.StatusCode, body)
	}
	if isSignInPage(body) {
		return nil, &apierr.AuthenticationError{Reason: "SSO authentication failed"}
	}
	return body, nil
}

// success reports whether code is a 2xx, or a 302 left unfollowed by the
// client.
func success(code int) bool {
	return (code >= 200 && code < 300) || code == http.StatusFound
}

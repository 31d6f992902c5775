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

// Package apierr defines the errors surfaced by the logbook client.
//
// None of these errors are recovered from inside the client, with two
// exceptions handled by the callers that know about them: a 404 on a per
// message type configuration lookup means "no data", and a 302 response
// is a success.
package apierr

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// TransportError reports an HTTP request that failed or that the server
// answered with a non-2xx status.
type TransportError struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	Status     string

	// Body is the raw response body, if any.
	Body []byte

	// Reason is a human readable summary.  Any error_report document
	// embedded in the body has been flattened into it.
	Reason string
}

func (e *TransportError) Error() string {
	return "access to the REST server failed. " + e.Reason
}

// NewStatusError builds a TransportError from a server response.
func NewStatusError(code int, body []byte) *TransportError {
	reason := fmt.Sprintf("HTTP Error %d: %s", code, http.StatusText(code))
	if len(body) > 0 {
		reason += ". REST server error: " + FlattenReport(string(body))
	}
	return &TransportError{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       body,
		Reason:     reason,
	}
}

// IsStatus reports whether err is a TransportError carrying the given
// HTTP status code.
func IsStatus(err error, code int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == code
}

// FormatError reports malformed XML on input, or a message that cannot be
// represented on the wire on output.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "XML formatter exception: " + e.Reason
}

// Formatf returns a *FormatError with a formatted reason.
func Formatf(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// ArgumentError reports a caller supplied value that fails a
// precondition, such as an attachment path that cannot be opened.
type ArgumentError struct {
	Argument string
}

func (e *ArgumentError) Error() string {
	return "wrong argument. " + e.Argument
}

// Argumentf returns an *ArgumentError with a formatted description.
func Argumentf(format string, args ...interface{}) error {
	return &ArgumentError{Argument: fmt.Sprintf(format, args...)}
}

// AuthenticationError reports credentials that could not be loaded, or a
// server that answered with a sign-in page instead of data.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

const (
	reportStart = "<error_report"
	reportEnd   = "</error_report>"
	xmlDecl     = "<?xml"
)

// errorReport mirrors the error document produced by the REST server:
//
//	<error_report>
//	  <error>
//	    <entry key="status">NOT_FOUND</entry>
//	    <entry key="code">404</entry>
//	  </error>
//	</error_report>
type errorReport struct {
	Errors []struct {
		Entries []struct {
			Key  string `xml:"key,attr"`
			Text string `xml:",chardata"`
		} `xml:"entry"`
	} `xml:"error"`
}

// FlattenReport finds an error_report document embedded in s and replaces
// it with its entries formatted as "[key]->text" joined by ", ".  Text
// before the document is kept.  If s holds no report, or the report does
// not parse, s is returned unchanged.
func FlattenReport(s string) string {
	end := strings.Index(s, reportEnd)
	if end == -1 {
		return s
	}
	start := strings.Index(s, xmlDecl)
	if start == -1 || start > end {
		start = strings.Index(s, reportStart)
	}
	if start == -1 || start > end {
		return s
	}

	var report errorReport
	if err := xml.Unmarshal([]byte(s[start:end+len(reportEnd)]), &report); err != nil {
		return s
	}
	var entries []string
	for _, e := range report.Errors {
		for _, entry := range e.Entries {
			entries = append(entries, "["+entry.Key+"]->"+entry.Text)
		}
	}
	return s[:start] + strings.Join(entries, ", ")
}

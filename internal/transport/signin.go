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

package transport

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

const signInMarker = "Sign in with your CERN account"

// isSignInPage reports whether body is the SSO login page, which the
// server returns with a 200 status when the session is not
// authenticated.
func isSignInPage(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) < 2 || trimmed[0] != '<' || trimmed[1] != '!' {
		return false
	}
	z := html.NewTokenizer(bytes.NewReader(trimmed))
	doctype := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.DoctypeToken:
			if strings.HasPrefix(strings.ToLower(string(z.Text())), "html") {
				doctype = true
			}
		case html.TextToken:
			if doctype && bytes.Contains(z.Text(), []byte(signInMarker)) {
				return true
			}
		}
	}
}

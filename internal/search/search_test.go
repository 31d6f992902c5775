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

package search

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValues(t *testing.T) {
	c := New()
	if got := c.Values(); len(got) != 0 {
		t.Errorf("New().Values() = %v, want empty", got)
	}

	c.SetLimit(10)
	c.SetPage(2)
	c.SetUserName("rmurillo")
	c.SetAuthor("Raul Murillo")
	c.SetSystemsAffected("HLT")
	c.SetType("Trigger")
	c.SetOptions("Trigger_Area")
	c.SetSubject("Unit test")
	c.SetStatus("closed")
	c.SetBody("Test")
	c.SetSince("2013-01-01")
	c.SetUntil("2013-02-01")
	c.SetInterval(3)

	want := url.Values{
		"limit":            {"10"},
		"page":             {"2"},
		"userName":         {"rmurillo"},
		"author":           {"Raul Murillo"},
		"systems_affected": {"HLT"},
		"message_type":     {"Trigger"},
		"options":          {"Trigger_Area"},
		"subject":          {"Unit test"},
		"status":           {"closed"},
		"body":             {"Test"},
		"from":             {"2013-01-01"},
		"to":               {"2013-02-01"},
		"month_interval":   {"3"},
	}
	if diff := cmp.Diff(want, c.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
}

func TestValuesKeepsEmpty(t *testing.T) {
	c := New()
	c.SetSubject("")
	want := url.Values{"subject": {""}}
	if diff := cmp.Diff(want, c.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
}

func TestString(t *testing.T) {
	c := New()
	c.SetAuthor("someone")
	s := c.String()
	for _, want := range []string{"author             : someone", "month_interval     : None"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, want it to contain %q", s, want)
		}
	}
}

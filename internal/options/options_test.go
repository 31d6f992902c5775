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

package options

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/field"
	"github.com/pkg/errors"
)

func TestBuilder(t *testing.T) {
	var b Builder
	if got := b.Options(); got != nil {
		t.Errorf("Options() = %#v, want nil", got)
	}
	area := b.Add("Trigger_Area", "Trigger Group")
	area.Add("Trigger_Group", "ID")
	area.Add("Trigger_Group", "Calo")
	b.Add("Shifter", "yes")

	want := []field.Option{
		{Name: "Trigger_Area", Value: "Trigger Group", Options: []field.Option{
			{Name: "Trigger_Group", Value: "ID"},
			{Name: "Trigger_Group", Value: "Calo"},
		}},
		{Name: "Shifter", Value: "yes"},
	}
	if diff := cmp.Diff(want, b.Options()); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		args []string
		want []field.Option
	}{
		{nil, nil},
		{
			[]string{"Trigger Area=Trigger Group"},
			[]field.Option{{Name: "Trigger Area", Value: "Trigger Group"}},
		},
		{
			[]string{" Area.Group = ID ", "Area=Group", "Other=x"},
			[]field.Option{
				{Name: "Area", Value: "Group", Options: []field.Option{{Name: "Group", Value: "ID"}}},
				{Name: "Other", Value: "x"},
			},
		},
	}
	for _, tc := range cases {
		got, err := Parse(tc.args)
		if err != nil {
			t.Errorf("Parse(%#v) = %v", tc.args, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Parse(%#v) mismatch (-want +got):\n%s", tc.args, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := [][]string{
		{"novalue"},
		{"empty="},
		{"a=b=c"},
		{"=value"},
		{"Area=x", "Area.Group.Sub=y"},
		{"Missing.Child=y"},
		{".Child=y"},
	}
	for _, args := range cases {
		_, err := Parse(args)
		var ae *apierr.ArgumentError
		if !errors.As(err, &ae) {
			t.Errorf("Parse(%#v) = %v, want an ArgumentError", args, err)
		}
	}
}

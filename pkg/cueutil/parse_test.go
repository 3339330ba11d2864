// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Entry: {
	name:   string & =~"^[a-z]+$"
	count:  int & >=0
	notes?: string
}
`

type testEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Notes string `json:"notes,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		want    testEntry
		wantErr string
	}{
		{
			name: "valid document",
			data: "name: \"alpha\"\ncount: 3\nnotes: \"x\"\n",
			want: testEntry{Name: "alpha", Count: 3, Notes: "x"},
		},
		{
			name: "optional field omitted",
			data: "name: \"beta\"\ncount: 0\n",
			want: testEntry{Name: "beta"},
		},
		{
			name:    "constraint violation names the field",
			data:    "name: \"Bad\"\ncount: 1\n",
			opts:    []Option{WithFilename("entry.cue")},
			wantErr: "entry.cue: name",
		},
		{
			name:    "missing field is not concrete",
			data:    "name: \"gamma\"\n",
			wantErr: "count",
		},
		{
			name:    "syntax error",
			data:    "name: \n",
			wantErr: "<input>",
		},
		{
			name:    "size limit",
			data:    "name: \"delta\"\ncount: 1\n",
			opts:    []Option{WithMaxFileSize(4)},
			wantErr: "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := ParseAndDecode[testEntry]([]byte(testSchema), []byte(tt.data), "#Entry", tt.opts...)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() error = %v", err)
			}
			if *res.Value != tt.want {
				t.Errorf("ParseAndDecode() = %+v, want %+v", *res.Value, tt.want)
			}
		})
	}
}

func TestParseAndDecodeUnknownDefinition(t *testing.T) {
	t.Parallel()
	if _, err := ParseAndDecode[testEntry]([]byte(testSchema), []byte("name: \"a\"\ncount: 1\n"), "#Missing"); err == nil {
		t.Fatal("expected error for unknown schema definition")
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"modules"}, "modules"},
		{[]string{"modules", "0", "kind"}, "modules[0].kind"},
		{[]string{"a", "1", "2"}, "a[1][2]"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatErrorNil(t *testing.T) {
	t.Parallel()
	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
}

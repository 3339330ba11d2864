// SPDX-License-Identifier: MPL-2.0

package module

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestReference_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  Reference
		json string
	}{
		{AppRef(12), `{"app":12}`},
		{AccountBaseRef(1), `{"account_base":1}`},
		{StandaloneRef(4), `{"standalone":4}`},
		{AdapterRef("contract3"), `{"adapter":"contract3"}`},
		{ServiceRef("contract9"), `{"service":"contract9"}`},
	}

	for _, tt := range tests {
		t.Run(tt.json, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tt.ref)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("Marshal() = %s, want %s", data, tt.json)
			}
			var got Reference
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.ref {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.ref)
			}
		})
	}
}

func TestReference_Validate(t *testing.T) {
	t.Parallel()

	bad := []Reference{
		{Kind: KindApp},
		{Kind: KindAdapter},
		{Kind: KindApp, CodeID: 1, Address: "x"},
		{Kind: "plugin", CodeID: 1},
	}
	for _, ref := range bad {
		if err := ref.Validate(); !errors.Is(err, ErrInvalidReference) {
			t.Errorf("Validate(%+v) error = %v, want ErrInvalidReference", ref, err)
		}
	}

	var ref Reference
	if err := json.Unmarshal([]byte(`{"app":1,"adapter":"x"}`), &ref); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("Unmarshal() with two kinds error = %v", err)
	}
}

func TestReferenceKind_IsCodeBased(t *testing.T) {
	t.Parallel()

	for kind, want := range map[ReferenceKind]bool{
		KindAccountBase: true,
		KindApp:         true,
		KindStandalone:  true,
		KindAdapter:     false,
		KindService:     false,
	} {
		if got := kind.IsCodeBased(); got != want {
			t.Errorf("%s.IsCodeBased() = %v, want %v", kind, got, want)
		}
	}
}

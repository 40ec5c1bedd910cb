package formup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateCodecRoundTrip(t *testing.T) {
	st := State{
		ID:      "formup-1",
		Values:  map[string]any{"name": "abcd", "dob": ""},
		Touched: map[string]bool{"name": true, "dob": false},
		Errors:  map[string]string{"name": "too short"},
	}

	for _, sealed := range []bool{false, true} {
		codec, err := NewStateCodec(testKey, sealed)
		if err != nil {
			t.Fatalf("NewStateCodec failed: %v", err)
		}
		token, err := codec.Encode(st)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		got, err := codec.Decode(token)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if diff := cmp.Diff(st, got); diff != "" {
			t.Errorf("sealed=%v state mismatch (-want +got):\n%s", sealed, diff)
		}
	}
}

func TestStateCodecErrors(t *testing.T) {
	codec, err := NewStateCodec(testKey, false)
	if err != nil {
		t.Fatal(err)
	}
	other, err := NewStateCodec([]byte("another key"), false)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := other.Encode(State{ID: "x"})
	if err != nil {
		t.Fatal(err)
	}

	for _, token := range []string{"", "garbage", foreign} {
		if _, err := codec.Decode(token); !IsStateError(err) {
			t.Errorf("Decode(%q) = %v, want ErrInvalidState", token, err)
		}
	}

	if _, err := NewStateCodec(nil, false); err == nil {
		t.Error("empty key should be rejected")
	}
}

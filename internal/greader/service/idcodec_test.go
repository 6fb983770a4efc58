package service

import "testing"

func TestEncodeItemID(t *testing.T) {
	got := EncodeItemID(123)
	want := "tag:google.com,2005:reader/item/000000000000007b"
	if got != want {
		t.Fatalf("EncodeItemID(123) = %q, want %q", got, want)
	}
}

func TestParseItemID(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"full tag form", "tag:google.com,2005:reader/item/000000000000007b", 123},
		{"bare hex", "000000000000007b", 123},
		{"0x-prefixed hex", "0x7b", 123},
		{"decimal", "123", 123},
		{"zero", "0000000000000000", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseItemID(c.raw)
			if err != nil {
				t.Fatalf("ParseItemID(%q) error: %v", c.raw, err)
			}
			if got != c.want {
				t.Fatalf("ParseItemID(%q) = %d, want %d", c.raw, got, c.want)
			}
		})
	}
}

func TestParseItemID_Invalid(t *testing.T) {
	for _, raw := range []string{"", "not-an-id", "   "} {
		if _, err := ParseItemID(raw); err == nil {
			t.Fatalf("ParseItemID(%q): expected error, got nil", raw)
		}
	}
}

func TestParseItemID_RoundTrip(t *testing.T) {
	for _, id := range []int64{0, 1, 123, 1 << 40} {
		encoded := EncodeItemID(id)
		got, err := ParseItemID(encoded)
		if err != nil {
			t.Fatalf("ParseItemID(%q) error: %v", encoded, err)
		}
		if got != id {
			t.Fatalf("round trip for %d: got %d", id, got)
		}
	}
}

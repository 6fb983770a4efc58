package service

import (
	"fmt"
	"strconv"
	"strings"
)

const itemIDPrefix = "tag:google.com,2005:reader/item/"

// EncodeItemID renders id in the full Google Reader item-id form, grounded
// on stream_format.py's encode_item_id/to_hex_id.
func EncodeItemID(id int64) string {
	return itemIDPrefix + toHex(id)
}

func toHex(id int64) string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ParseItemID accepts any of the four item-id forms a GReader client sends:
// the full tag: form, a bare 16-char hex string, a "0x"-prefixed hex
// string, or a decimal integer, grounded on stream_format.py's
// parse_item_id.
func ParseItemID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("service: empty item id")
	}

	if rest, ok := strings.CutPrefix(s, itemIDPrefix); ok {
		return fromHex(rest)
	}

	if len(s) == 16 && isHex(s) {
		return fromHex(s)
	}

	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return fromHex(rest)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("service: invalid item id %q", raw)
	}
	return n, nil
}

func fromHex(hex string) (int64, error) {
	n, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("service: invalid hex item id %q: %w", hex, err)
	}
	return int64(n), nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

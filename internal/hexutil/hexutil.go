// Package hexutil parses CSS-style hex color values.
// The report writers share it so HTML branding overrides and PDF fills
// agree on what counts as a valid color.
package hexutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidColor indicates a value that is not a #rgb or #rrggbb hex color.
var ErrInvalidColor = errors.New("hexutil: invalid hex color")

// ParseColor parses a "#rgb" or "#rrggbb" color into its RGB components.
// Shorthand digits are doubled ("#f00" is "#ff0000"). Hex digits may be
// upper or lower case.
func ParseColor(s string) (r, g, b int, err error) {
	raw, ok := strings.CutPrefix(s, "#")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q missing # prefix", ErrInvalidColor, s)
	}

	switch len(raw) {
	case 3:
		r, g, b, err = nibbles(raw[0], raw[0], raw[1], raw[1], raw[2], raw[2])
	case 6:
		r, g, b, err = nibbles(raw[0], raw[1], raw[2], raw[3], raw[4], raw[5])
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q must be #rgb or #rrggbb", ErrInvalidColor, s)
	}
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return r, g, b, nil
}

// IsColor reports whether s is a valid #rgb or #rrggbb hex color.
func IsColor(s string) bool {
	_, _, _, err := ParseColor(s)
	return err == nil
}

func nibbles(rh, rl, gh, gl, bh, bl byte) (int, int, int, error) {
	r, err := octet(rh, rl)
	if err != nil {
		return 0, 0, 0, err
	}
	g, err := octet(gh, gl)
	if err != nil {
		return 0, 0, 0, err
	}
	b, err := octet(bh, bl)
	if err != nil {
		return 0, 0, 0, err
	}
	return r, g, b, nil
}

func octet(hi, lo byte) (int, error) {
	h, err := nibble(hi)
	if err != nil {
		return 0, err
	}
	l, err := nibble(lo)
	if err != nil {
		return 0, err
	}
	return h<<4 | l, nil
}

func nibble(c byte) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, nil
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, nil
	}
	return 0, ErrInvalidColor
}

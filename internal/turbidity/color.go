package turbidity

import (
	"regexp"
	"strconv"
	"strings"
)

type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Reading is a solution colour as the bench renders it.
type Reading struct {
	RGB     RGB     `json:"rgb"`
	Opacity float64 `json:"opacity"` // 0..1
}

var (
	hexColor   = regexp.MustCompile(`^#?([0-9a-f]{2})([0-9a-f]{2})([0-9a-f]{2})$`)
	shortColor = regexp.MustCompile(`^#([0-9a-f])([0-9a-f])([0-9a-f])$`)
	funcColor  = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*(\d*\.?\d+)\s*)?\)$`)
)

// ParseColor reads "#rrggbb", "#rgb", "rgb(r,g,b)" or "rgba(r,g,b,a)".
// Solid colours are fully opaque. Anything else, including "transparent",
// reads as black with zero opacity.
func ParseColor(s string) Reading {
	s = strings.ToLower(strings.TrimSpace(s))
	if m := hexColor.FindStringSubmatch(s); m != nil {
		return Reading{RGB: RGB{R: hexByte(m[1]), G: hexByte(m[2]), B: hexByte(m[3])}, Opacity: 1}
	}
	if m := shortColor.FindStringSubmatch(s); m != nil {
		return Reading{RGB: RGB{R: hexByte(m[1] + m[1]), G: hexByte(m[2] + m[2]), B: hexByte(m[3] + m[3])}, Opacity: 1}
	}
	if m := funcColor.FindStringSubmatch(s); m != nil {
		r := Reading{RGB: RGB{R: channel(m[1]), G: channel(m[2]), B: channel(m[3])}, Opacity: 1}
		if m[4] != "" {
			a, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				return Reading{}
			}
			r.Opacity = clamp(a, 0, 1)
		}
		return r
	}
	return Reading{}
}

func hexByte(s string) int {
	v, _ := strconv.ParseUint(s, 16, 8)
	return int(v)
}

func channel(s string) int {
	v, _ := strconv.Atoi(s)
	if v > 255 {
		return 255
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

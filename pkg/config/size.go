package config

import (
	"fmt"
	"math/bits"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// safeMul returns size*multiplier and reports whether it overflowed.
func safeMul(size uint64, multiplier uint64) (uint64, bool) {
	hi, lo := bits.Mul64(size, multiplier)
	return lo, hi != 0
}

// ParseSize converts strings like 64k, 1MB or 12 mb into a number of bytes.
// Both `k` and `kb` forms are accepted, all multipliers are powers of 1024.
func ParseSize(sizeStr string) (uint64, error) {
	orig := sizeStr
	sizeStr = strings.TrimSpace(sizeStr)
	lastChar := len(sizeStr) - 1
	multiplier := uint64(1)

	if lastChar > 0 {
		if sizeStr[lastChar] == 'b' || sizeStr[lastChar] == 'B' {
			lastChar--
		}
		if lastChar >= 0 {
			switch unicode.ToLower(rune(sizeStr[lastChar])) {
			case 'k':
				multiplier = 1 << 10
				sizeStr = strings.TrimSpace(sizeStr[:lastChar])
			case 'm':
				multiplier = 1 << 20
				sizeStr = strings.TrimSpace(sizeStr[:lastChar])
			case 'g':
				multiplier = 1 << 30
				sizeStr = strings.TrimSpace(sizeStr[:lastChar])
			default:
				sizeStr = strings.TrimSpace(sizeStr[:lastChar+1])
			}
		}
	}

	size, err := cast.ToUint64E(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", orig, err)
	}
	res, overflow := safeMul(size, multiplier)
	if overflow {
		return 0, fmt.Errorf("parse size %q: overflow", orig)
	}
	return res, nil
}

package assembly

import (
	"fmt"
	"strings"
)

// Compare totally orders two labels. Numeric labels (int, float64) compare by
// value; strings compare lexicographically; numeric labels order before
// strings so mixed coords still sort deterministically.
func Compare(a, b Label) int {
	fa, aNum := labelNumber(a)
	fb, bNum := labelNumber(b)
	switch {
	case aNum && bNum:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case aNum:
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(labelString(a), labelString(b))
	}
}

func labelNumber(l Label) (float64, bool) {
	switch v := l.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func labelString(l Label) string {
	if s, ok := l.(string); ok {
		return s
	}
	return fmt.Sprint(l)
}

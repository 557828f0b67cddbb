package enums

import (
	"fmt"
	"slices"
)

// parse matches value exactly against set. kind names the enum in errors.
func parse[T ~string](set []T, kind, value string) (T, error) {
	if i := slices.Index(set, T(value)); i >= 0 {
		return set[i], nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}

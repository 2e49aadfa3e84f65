// Package embedding holds helpers shared by the Embedder implementations
// in its subpackages.
package embedding

import (
	"fmt"
	"math"
	"strings"

	"askdoc/internal/domain"
)

// Normalize scales v to unit L2 length in place. Zero vectors are left unchanged.
func Normalize(v domain.Vector) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// ValidateTexts rejects blank inputs; an embedding of nothing is never useful.
func ValidateTexts(texts []string) error {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: text %d is blank", domain.ErrEmptyInput, i)
		}
	}
	return nil
}

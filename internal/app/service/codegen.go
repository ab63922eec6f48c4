package service

import (
	"crypto/rand"
	"fmt"
	"io"
)

// DefaultCodeLength is the length of generated short codes.
const DefaultCodeLength = 6

// codeAlphabet has exactly 64 URL-safe symbols, so masking a random byte
// with 63 picks each symbol with equal probability.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// RandomGenerator produces fixed-length codes from a random source.
type RandomGenerator struct {
	length int
	source io.Reader
}

// NewRandomGenerator returns a generator backed by crypto/rand.
func NewRandomGenerator(length int) *RandomGenerator {
	return NewRandomGeneratorFrom(length, rand.Reader)
}

// NewRandomGeneratorFrom returns a generator reading randomness from source.
func NewRandomGeneratorFrom(length int, source io.Reader) *RandomGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &RandomGenerator{
		length: length,
		source: source,
	}
}

func (g *RandomGenerator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[b&63]
	}

	return string(buf), nil
}

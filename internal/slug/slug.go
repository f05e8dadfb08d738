// Package slug derives human-readable routing keys for notes.
package slug

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	gosimpleslug "github.com/gosimple/slug"
)

// SuffixLength is the number of random characters appended to every note slug.
const SuffixLength = 10

const (
	separator = "_"
	alphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrInvalidLength indicates a non-positive random string length.
var ErrInvalidLength = errors.New("slug: invalid random string length")

// Slugify lowercases the title and collapses everything that is not URL safe into hyphens.
func Slugify(title string) string {
	return gosimpleslug.Make(title)
}

// RandomString returns length characters drawn uniformly from [a-zA-Z0-9].
func RandomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	limit := big.NewInt(int64(len(alphabet)))
	buffer := make([]byte, length)
	for index := range buffer {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buffer[index] = alphabet[position.Int64()]
	}
	return string(buffer), nil
}

// Generator produces note slugs of the form slugify(title) + "_" + random(SuffixLength).
type Generator struct {
	random func(int) (string, error)
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: RandomString}
}

// Generate derives a fresh slug for title. Every call draws a new suffix.
func (g *Generator) Generate(title string) (string, error) {
	random := RandomString
	if g != nil && g.random != nil {
		random = g.random
	}
	suffix, err := random(SuffixLength)
	if err != nil {
		return "", err
	}
	return Slugify(title) + separator + suffix, nil
}

// Prefix returns the deterministic part of every slug generated for title.
func Prefix(title string) string {
	return Slugify(title) + separator
}

// Package codegen produces short codes and validates user supplied input
// for links: destination URLs, custom aliases and expiry dates.
package codegen

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// codeEntropy is the number of random bytes behind a generated code. It
// encodes to 8 URL-safe characters.
const codeEntropy = 6

var aliasRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Accepted expiry layouts: day, hour or minute granularity, no seconds.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15",
	"2006-01-02 15:04",
}

var ErrBadDate = errors.New("date does not match YYYY-MM-DD[ HH[:MM]]")

// Generator makes random candidate codes. Candidates are not unique on their
// own; callers must check them against the store.
type Generator interface {
	Generate() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (RandomGenerator) Generate() (string, error) {
	return GenerateCode()
}

// GenerateCode returns a random base64url token built from 6 bytes of entropy.
func GenerateCode() (string, error) {
	b := make([]byte, codeEntropy)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidAlias reports whether code is a non-empty run of ASCII letters,
// digits, hyphens and underscores.
func ValidAlias(code string) bool {
	return aliasRe.MatchString(code)
}

// ValidURL requires an http or https scheme and a non-empty host name.
func ValidURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

// ValidDate reports whether text parses under one of the accepted layouts.
func ValidDate(text string) bool {
	_, err := ParseDate(text)
	return err == nil
}

// ParseDate parses text as a UTC instant using the accepted layouts.
func ParseDate(text string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadDate
}

// Package sessionid generates identifiers for stored sessions.
//
// An id is a UUIDv7 written as 26 characters of Crockford base32, so ids
// sort by creation time and are safe to use in file names and URLs.
package sessionid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the length of an encoded id.
const Length = 26

// Generator creates ids, optionally from a fixed source of randomness.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a generator reading randomness from r. A nil reader
// uses crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// New returns a fresh id using crypto/rand.
func New() (string, error) {
	return NewGenerator(nil).New()
}

// New returns a fresh id.
func (g *Generator) New() (string, error) {
	var (
		u   uuid.UUID
		err error
	)
	if g.rand != nil {
		u, err = uuid.NewV7FromReader(g.rand)
	} else {
		u, err = uuid.NewV7()
	}
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return Encode(u), nil
}

// Encode writes u as 26 base32 characters. The 128 bits are left-padded
// with two zero bits, so the first character is always 0-7.
func Encode(u uuid.UUID) string {
	out := make([]byte, Length)
	for i := range out {
		var v byte
		for b := range 5 {
			pos := i*5 + b - 2
			v <<= 1
			if pos >= 0 && u[pos/8]&(0x80>>(pos%8)) != 0 {
				v |= 1
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Parse decodes an id produced by Encode.
func Parse(id string) (uuid.UUID, error) {
	var u uuid.UUID
	if err := Validate(id); err != nil {
		return u, err
	}
	for i := 0; i < Length; i++ {
		v := byte(strings.IndexByte(alphabet, id[i]))
		for b := range 5 {
			pos := i*5 + b - 2
			if pos < 0 {
				continue
			}
			if v&(0x10>>b) != 0 {
				u[pos/8] |= 0x80 >> (pos % 8)
			}
		}
	}
	return u, nil
}

// Validate checks that id is a well-formed session id.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("session id must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("session id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}

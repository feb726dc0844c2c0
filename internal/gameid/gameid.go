// Package gameid generates sortable identifiers for game sessions.
//
// An ID is a UUIDv7 (48-bit millisecond timestamp, version and variant bits,
// random tail) rendered as 26 characters of Crockford base32.
package gameid

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/coder/quartz"
	"github.com/lox/pebbles/internal/randutil"
)

// Crockford's base32 alphabet, as used by TypeID.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in an encoded ID.
const Length = 26

// Generator produces IDs from a clock and a random source.
type Generator struct {
	src   randutil.Source
	clock quartz.Clock
}

// NewGenerator creates a Generator. A nil src uses crypto/rand and a nil
// clock uses the real clock.
func NewGenerator(src randutil.Source, clock quartz.Clock) *Generator {
	if src == nil {
		src = randutil.Crypto()
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{src: src, clock: clock}
}

// Generate returns a new ID.
func (g *Generator) Generate() (string, error) {
	uuid, err := g.uuidV7()
	if err != nil {
		return "", fmt.Errorf("generate game id: %w", err)
	}
	return encode(uuid), nil
}

func (g *Generator) uuidV7() ([16]byte, error) {
	var uuid [16]byte

	ms := uint64(g.clock.Now().UnixMilli())
	for i := 0; i < 6; i++ {
		uuid[i] = byte(ms >> (40 - 8*i))
	}

	for i := 6; i < 16; i += 4 {
		v, err := g.src.Uint32()
		if err != nil {
			return uuid, err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		copy(uuid[i:], b[:])
	}

	uuid[6] = (uuid[6] & 0x0f) | 0x70 // version 7
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // variant 10

	return uuid, nil
}

// encode writes the 128 bits, left-padded with two zero bits to 130, five
// bits per character.
func encode(data [16]byte) string {
	var sb strings.Builder
	sb.Grow(Length)

	var acc uint32
	bits := 2 // leading pad bits
	for _, b := range data {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(alphabet[(acc>>bits)&0x1f])
		}
	}
	return sb.String()
}

// Validate checks that id is 26 base32 characters encoding at most 128 bits.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}

// Package objectkey generates object-store keys for uploaded files.
package objectkey

import (
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator produces a storage key for an uploaded file.
type Generator interface {
	GenerateKey(fileName string) string
}

// TimestampGenerator builds keys of the form
// {prefix}{unix-millis}-{9 random digits}-{sanitized file name}.
// The timestamp keeps keys roughly sortable by upload time and the random
// component separates uploads landing in the same millisecond.
type TimestampGenerator struct {
	Prefix string
	Now    func() time.Time
	Rand   func() int64
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{}
}

func (g *TimestampGenerator) GenerateKey(fileName string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	random := func() int64 { return rand.Int64N(1_000_000_000) }
	if g.Rand != nil {
		random = g.Rand
	}
	return fmt.Sprintf("%s%d-%09d-%s", g.Prefix, now().UnixMilli(), random(), SanitizeFilename(fileName))
}

// UUIDGenerator builds keys of the form {prefix}{uuid}/{sanitized file name}.
type UUIDGenerator struct {
	Prefix string
}

func NewUUIDGenerator(prefix string) *UUIDGenerator {
	return &UUIDGenerator{Prefix: prefix}
}

func (g *UUIDGenerator) GenerateKey(fileName string) string {
	return fmt.Sprintf("%s%s/%s", g.Prefix, uuid.New(), SanitizeFilename(fileName))
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(fileName string) string

func (f GeneratorFunc) GenerateKey(fileName string) string {
	return f(fileName)
}

// NewDefaultGenerator returns the generator used when none is configured.
func NewDefaultGenerator() Generator {
	return NewTimestampGenerator()
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
	"#", "_",
	"%", "_",
)

// SanitizeFilename reduces a client-supplied file name to a single safe path
// segment. Empty or dot-only names become "file".
func SanitizeFilename(fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = filenameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if strings.Trim(name, ".") == "" {
		return "file"
	}
	return name
}

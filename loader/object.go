// Package loader reads LC-3 object images and hex listings.
package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Program is a loaded memory image ready to copy into a machine.
type Program struct {
	// Origin is the address of the first word.
	Origin uint16
	// Words are the instruction and data words, loaded contiguously
	// starting at Origin.
	Words []uint16
}

// Load reads an object image from a file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open object file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// Read parses an object image: big-endian 16-bit words, the first being
// the origin address and the rest contents loaded contiguously from it.
// Reading stops at end of input or once the image reaches address 0xFFFF.
func Read(r io.Reader) (*Program, error) {
	var origin uint16
	if err := binary.Read(r, binary.BigEndian, &origin); err != nil {
		if err == io.EOF {
			return nil, errors.New("object image is empty")
		}
		return nil, fmt.Errorf("failed to read origin word: %w", err)
	}

	capacity := 0x10000 - int(origin)
	var words []uint16
	for len(words) < capacity {
		var w uint16
		err := binary.Read(r, binary.BigEndian, &w)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read word %d: %w", len(words), err)
		}
		words = append(words, w)
	}

	return &Program{Origin: origin, Words: words}, nil
}

// LoadHex reads a hex listing from a file.
func LoadHex(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := ReadHex(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// ReadHex parses a text listing: whitespace-separated hexadecimal words
// with an optional 0x or x prefix, the first being the origin address.
// Text from "//" or ";" to end of line is a comment.
func ReadHex(r io.Reader) (*Program, error) {
	var values []uint16

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		if i := strings.IndexByte(text, ';'); i >= 0 {
			text = text[:i]
		}
		for _, tok := range strings.Fields(text) {
			tok = strings.ToLower(tok)
			tok = strings.TrimPrefix(tok, "0x")
			tok = strings.TrimPrefix(tok, "x")
			v, err := strconv.ParseUint(tok, 16, 16)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad word %q: %w", line, tok, err)
			}
			values = append(values, uint16(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	if len(values) == 0 {
		return nil, errors.New("listing has no origin word")
	}

	origin := values[0]
	words := values[1:]
	if capacity := 0x10000 - int(origin); len(words) > capacity {
		words = words[:capacity]
	}
	return &Program{Origin: origin, Words: words}, nil
}

package dos

import (
	"strconv"
	"strings"
)

// Arguments is the fixed-shape keyword record produced by parseArguments.
// Numeric letters default to 0 when unspecified; only the flag letters
// distinguish present from absent.
type Arguments struct {
	Volume  int // V
	Drive   int // D
	Slot    int // S
	Length  int // L
	Record  int // R
	Byte    int // B
	Address int // A

	FlagC bool // C - command trace
	FlagI bool // I - input trace
	FlagO bool // O - output trace
}

const (
	numericLetters = "VDSLRBA"
	flagLetters    = "CIO"
)

// parseArguments tokenizes the portion of a command line following the
// keyword and filename(s). The tail must be zero or more comma-introduced
// <Letter><value> tokens; values are decimal or $-prefixed hexadecimal for
// numeric letters and absent for flag letters. Letters outside allowed fail
// with Invalid option, as does any unconsumed trailing text. A repeated
// letter overwrites the earlier value: last occurrence wins.
func parseArguments(tail string, allowed string) (Arguments, error) {
	var args Arguments

	rest := tail
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return args, nil
		}
		if rest[0] != ',' {
			return Arguments{}, errInvalidOption()
		}
		rest = strings.TrimLeft(rest[1:], " \t")
		if rest == "" {
			return Arguments{}, errInvalidOption()
		}

		letter := upperByte(rest[0])
		if !strings.ContainsRune(allowed, rune(letter)) {
			return Arguments{}, errInvalidOption()
		}
		rest = rest[1:]

		if strings.ContainsRune(flagLetters, rune(letter)) {
			switch letter {
			case 'C':
				args.FlagC = true
			case 'I':
				args.FlagI = true
			case 'O':
				args.FlagO = true
			}
			continue
		}

		value, remaining, err := scanValue(rest)
		if err != nil {
			return Arguments{}, err
		}
		rest = remaining

		switch letter {
		case 'V':
			args.Volume = value
		case 'D':
			args.Drive = value
		case 'S':
			args.Slot = value
		case 'L':
			args.Length = value
		case 'R':
			args.Record = value
		case 'B':
			args.Byte = value
		case 'A':
			args.Address = value
		}
	}
}

// scanValue consumes a decimal or $-prefixed hexadecimal non-negative
// integer from the front of s.
func scanValue(s string) (int, string, error) {
	base := 10
	digits := "0123456789"
	if strings.HasPrefix(s, "$") {
		base = 16
		digits = "0123456789abcdefABCDEF"
		s = s[1:]
	}

	n := 0
	for n < len(s) && strings.ContainsRune(digits, rune(s[n])) {
		n++
	}
	if n == 0 {
		return 0, "", errInvalidOption()
	}

	value, err := strconv.ParseInt(s[:n], base, 64)
	if err != nil {
		return 0, "", errInvalidOption()
	}
	return int(value), s[n:], nil
}

func upperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

package spec

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/pngsquare/pkg/errors"
)

// directives in the order they must appear.
var directives = []string{"name", "png", "c", "h", "hi", "from", "unit"}

// Parse reads a line-format spec. Every error names the offending line.
func Parse(r io.Reader) (*Spec, error) {
	sc := bufio.NewScanner(r)
	line := 0

	vals := make(map[string]string, len(directives))
	for _, key := range directives {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "read spec")
			}
			return nil, errors.New(errors.ErrCodeInvalidSpec,
				"line %d: unexpected end of file, expected '%s <data>'", line+1, key)
		}
		line++
		val, err := directive(key, trimEOL(sc.Text()))
		if err != nil {
			return nil, atLine(line, err)
		}
		vals[key] = val
	}

	s := &Spec{
		Name: vals["name"],
		PNG:  vals["png"],
		C:    vals["c"],
		H:    vals["h"],
		HI:   vals["hi"],
		From: vals["from"],
	}
	if err := errors.ValidateName(s.Name); err != nil {
		return nil, atLine(1, err)
	}
	unit, err := strconv.Atoi(strings.TrimSpace(vals["unit"]))
	if err != nil || unit <= 0 {
		return nil, atLine(len(directives),
			errors.New(errors.ErrCodeInvalidUnit, "the unit directive must specify a positive integer"))
	}
	s.Unit = unit

	seen := make(map[string]int)
	for sc.Scan() {
		line++
		name := trimEOL(sc.Text())
		if name == "" {
			continue
		}
		if err := errors.ValidateName(name); err != nil {
			return nil, atLine(line, err)
		}
		if prev, dup := seen[name]; dup {
			return nil, atLine(line, errors.New(errors.ErrCodeDuplicateName,
				"image '%s' already listed on line %d", name, prev))
		}
		seen[name] = line
		s.Images = append(s.Images, name)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "read spec")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// directive returns the value of a "<key> <value>" line.
func directive(key, line string) (string, error) {
	val, ok := strings.CutPrefix(line, key+" ")
	if !ok || val == "" {
		return "", errors.New(errors.ErrCodeInvalidSpec, "expected '%s <data>', got '%s'", key, line)
	}
	return val, nil
}

// atLine prefixes err's message with a line number, keeping its code.
func atLine(line int, err error) error {
	e, ok := err.(*errors.Error)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "line %d", line)
	}
	return &errors.Error{
		Code:    e.Code,
		Message: "line " + strconv.Itoa(line) + ": " + e.Message,
		Cause:   e.Cause,
	}
}

func trimEOL(s string) string {
	return strings.TrimSuffix(s, "\r")
}

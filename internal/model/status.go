package model

import (
	"errors"
	"fmt"
)

// ErrInvalidStatus is returned for status text outside ok, partial and no.
var ErrInvalidStatus = errors.New("invalid status")

// Status is the recorded state of one habit on one date.
// Unmarked is never stored: it is the absence of a log row.
type Status int

const (
	StatusUnmarked Status = iota
	StatusOK
	StatusPartial
	StatusNo
)

// Next cycles unmarked -> ok -> partial -> no -> unmarked.
func (s Status) Next() Status {
	switch s {
	case StatusUnmarked:
		return StatusOK
	case StatusOK:
		return StatusPartial
	case StatusPartial:
		return StatusNo
	default:
		return StatusUnmarked
	}
}

// String returns the wire form; Unmarked is the empty string.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	case StatusNo:
		return "no"
	default:
		return ""
	}
}

// Stored reports whether s is persisted as a log row.
func (s Status) Stored() bool {
	return s == StatusOK || s == StatusPartial || s == StatusNo
}

// ParseStatus maps wire text to a Status. The empty string is Unmarked.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "":
		return StatusUnmarked, nil
	case "ok":
		return StatusOK, nil
	case "partial":
		return StatusPartial, nil
	case "no":
		return StatusNo, nil
	default:
		return StatusUnmarked, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

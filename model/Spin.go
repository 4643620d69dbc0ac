package model

import (
	"strings"

	"github.com/atomledger/atomengine/errors"
)

// Spin is the lifecycle state a particle is asserted to be in.
type Spin int8

const (
	SpinNeutral Spin = iota
	SpinUp
	SpinDown
)

func (s Spin) String() string {
	switch s {
	case SpinNeutral:
		return "NEUTRAL"
	case SpinUp:
		return "UP"
	case SpinDown:
		return "DOWN"
	default:
		return "INVALID"
	}
}

func (s Spin) Valid() bool {
	return s >= SpinNeutral && s <= SpinDown
}

// Next returns the only legal successor of s. DOWN is terminal.
func Next(s Spin) (Spin, error) {
	switch s {
	case SpinNeutral:
		return SpinUp, nil
	case SpinUp:
		return SpinDown, nil
	case SpinDown:
		return SpinDown, errors.NewTerminalStateError("no next spin after %s", s)
	default:
		return s, errors.NewInvalidArgumentError("invalid spin %d", int8(s))
	}
}

// Prev returns the spin a particle must be in for s to be its next spin.
func Prev(s Spin) (Spin, error) {
	switch s {
	case SpinUp:
		return SpinNeutral, nil
	case SpinDown:
		return SpinUp, nil
	case SpinNeutral:
		return SpinNeutral, errors.NewInvalidArgumentError("no spin precedes %s", s)
	default:
		return s, errors.NewInvalidArgumentError("invalid spin %d", int8(s))
	}
}

func ParseSpin(s string) (Spin, error) {
	switch strings.ToUpper(s) {
	case "NEUTRAL":
		return SpinNeutral, nil
	case "UP":
		return SpinUp, nil
	case "DOWN":
		return SpinDown, nil
	}

	return SpinNeutral, errors.NewInvalidArgumentError("unknown spin %q", s)
}

func (s Spin) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.NewInvalidArgumentError("invalid spin %d", int8(s))
	}

	return []byte(s.String()), nil
}

func (s *Spin) UnmarshalText(text []byte) error {
	parsed, err := ParseSpin(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

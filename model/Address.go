package model

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/atomledger/atomengine/errors"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

const AddressLength = 33

// Address identifies a controlling key by its compressed public key.
type Address [AddressLength]byte

func AddressFromPublicKey(pub *bec.PublicKey) Address {
	var a Address

	copy(a[:], pub.Compressed())

	return a
}

func NewAddressFromString(s string) (Address, error) {
	var a Address

	b, err := hex.DecodeString(s)
	if err != nil {
		return a, errors.NewInvalidArgumentError("invalid address %q", s, err)
	}

	if len(b) != AddressLength {
		return a, errors.NewInvalidArgumentError("invalid address length %d", len(b))
	}

	copy(a[:], b)

	return a, nil
}

func (a Address) PublicKey() (*bec.PublicKey, error) {
	return bec.ParsePubKey(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddressFromString(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

var rriNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,64}$`)

// RRI is a radix resource identifier: a name unique within the namespace of an address.
type RRI struct {
	Address Address `json:"address"`
	Name    string  `json:"name"`
}

func NewRRI(address Address, name string) RRI {
	return RRI{Address: address, Name: name}
}

func ParseRRI(s string) (RRI, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] != "" {
		return RRI{}, errors.NewInvalidArgumentError("invalid rri %q", s)
	}

	address, err := NewAddressFromString(parts[1])
	if err != nil {
		return RRI{}, err
	}

	rri := RRI{Address: address, Name: parts[2]}
	if err = rri.Validate(); err != nil {
		return RRI{}, err
	}

	return rri, nil
}

func (r RRI) Validate() error {
	if r.Address.IsZero() {
		return errors.NewInvalidArgumentError("rri has no address")
	}

	if !rriNamePattern.MatchString(r.Name) {
		return errors.NewInvalidArgumentError("rri name %q is invalid", r.Name)
	}

	return nil
}

func (r RRI) String() string {
	return "/" + r.Address.String() + "/" + r.Name
}

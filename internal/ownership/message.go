// Package ownership implements the signed-message protocol used to prove
// control of a smart-contract address: the human-readable attestation message,
// resolution of the addresses entitled to claim a contract, and validation of
// a signed claim against those candidates.
package ownership

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TimestampFormat is the wall-clock format embedded in attestation messages.
const TimestampFormat = "2006-01-02 15:04:05"

// VerificationText is the fixed sentence every attestation message carries.
const VerificationText = "I, hereby verify that I am the owner/creator of the address"

// messagePattern matches the bracketed-field grammar:
// [site] [timestamp] <sentence> [address]
var messagePattern = regexp.MustCompile(`^\[([^\[\]]*)\] \[([^\[\]]*)\] (.*) \[([^\[\]]*)\]$`)

// Message is the attestation a user signs to claim a contract address.
// Timestamp has second precision; Message round-trips through its text form.
type Message struct {
	Site      string
	Timestamp time.Time
	Address   common.Address
}

// NewMessage builds a fresh message for the given site and contract,
// timestamped now.
func NewMessage(site string, address common.Address) Message {
	return Message{
		Site:      site,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Address:   address,
	}
}

// ParseMessage parses the canonical text form of an attestation message.
func ParseMessage(text string) (Message, error) {
	m := messagePattern.FindStringSubmatch(text)
	if m == nil {
		return Message{}, fmt.Errorf("%w: expected \"[site] [timestamp] %s [address]\"", ErrInvalidFormat, VerificationText)
	}
	site, tsField, sentence, addrField := m[1], m[2], m[3], m[4]

	ts, err := time.ParseInLocation(TimestampFormat, tsField, time.UTC)
	if err != nil {
		return Message{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidFormat, tsField)
	}
	if sentence != VerificationText {
		return Message{}, fmt.Errorf("%w: expected sentence %q, got %q", ErrInvalidFormat, VerificationText, sentence)
	}
	if !common.IsHexAddress(addrField) {
		return Message{}, fmt.Errorf("%w: bad address %q", ErrInvalidFormat, addrField)
	}

	return Message{
		Site:      site,
		Timestamp: ts,
		Address:   common.HexToAddress(addrField),
	}, nil
}

// String renders the canonical text form. Addresses are lowercase hex, the
// form users see and sign.
func (m Message) String() string {
	return fmt.Sprintf("[%s] [%s] %s [0x%x]",
		m.Site, m.Timestamp.Format(TimestampFormat), VerificationText, m.Address[:])
}

// Validate checks the message binds to the expected site and contract and is
// fresh. Freshness only has a lower bound: a timestamp in the future passes,
// tolerating client clock skew.
func (m Message) Validate(site string, minTimestamp time.Time, address common.Address) error {
	if m.Site != site {
		return fmt.Errorf("%w: expected %q, got %q", ErrSiteMismatch, site, m.Site)
	}
	if m.Address != address {
		return fmt.Errorf("%w: expected %s, got %s", ErrAddressMismatch, address, m.Address)
	}
	if m.Timestamp.Before(minTimestamp) {
		return ErrExpired
	}
	return nil
}

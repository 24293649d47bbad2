// Package validation provides input validation for contractsinfo.
package validation

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateAddress validates an Ethereum address
func ValidateAddress(addr string) error {
	if len(addr) != 42 {
		return errors.New("invalid address length: must be 42 characters (0x + 40 hex)")
	}
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	// Check hex characters
	for _, c := range addr[2:] {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return errors.New("invalid address: contains non-hex characters")
		}
	}
	return nil
}

// ValidateChainID validates a chain ID
func ValidateChainID(chainID int64) error {
	if chainID <= 0 {
		return errors.New("chain ID must be positive")
	}
	return nil
}

// ValidateSignature validates a 0x-prefixed hex signature of 65 bytes
func ValidateSignature(sig string) error {
	s := strings.TrimPrefix(sig, "0x")
	if len(s) != 130 {
		return errors.New("invalid signature length: must be 65 bytes of hex")
	}
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return errors.New("invalid signature: contains non-hex characters")
		}
	}
	return nil
}

// ValidateEmail performs a light-weight email shape check
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidateURL validates an absolute http(s) URL
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("invalid URL: must be http or https")
	}
	if u.Host == "" {
		return errors.New("invalid URL: missing host")
	}
	return nil
}

package ownership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ValidatedOwnership is a fully checked ownership claim: the recovered signer
// is entitled to the contract and the message it signed is well formed, bound
// and fresh.
type ValidatedOwnership struct {
	Owner    common.Address
	Contract common.Address
	Message  Message
}

// Validator combines message validation, signature recovery and candidate
// resolution into a single verdict. Stateless; one resolution per call, no
// retries.
type Validator struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewValidator creates a validator on top of the given resolver.
func NewValidator(resolver *Resolver, logger *slog.Logger) *Validator {
	return &Validator{resolver: resolver, logger: logger}
}

// ValidateOwnership checks a signed ownership claim for contract. signedText
// must be the exact text the signature was produced over.
func (v *Validator) ValidateOwnership(ctx context.Context, signature []byte, signedText string, contract common.Address, site string, minTimestamp time.Time) (*ValidatedOwnership, error) {
	message, err := ParseMessage(signedText)
	if err != nil {
		return nil, err
	}
	if err := message.Validate(site, minTimestamp, contract); err != nil {
		return nil, err
	}

	signer, err := RecoverSigner(signature, signedText)
	if err != nil {
		return nil, err
	}

	options, err := v.resolver.ResolveOwnershipOptions(ctx, contract)
	if err != nil {
		return nil, err
	}

	if !options.Contains(signer) {
		v.logger.Warn("ownership claim rejected",
			"contract", contract, "signer", signer, "candidates", options.List())
		return nil, &WrongOwnerError{
			Contract:       contract,
			SuggestedOwner: signer,
			PossibleOwners: options.List(),
		}
	}

	v.logger.Info("ownership verified", "contract", contract, "owner", signer)
	return &ValidatedOwnership{Owner: signer, Contract: contract, Message: message}, nil
}

// RecoverSigner recovers the address that produced signature over the EIP-191
// personal-message hash of text. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverSigner(signature []byte, text string) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("%w: expected 65 bytes, got %d", ErrInvalidSignature, len(signature))
	}
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("%w: bad recovery id", ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(text)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

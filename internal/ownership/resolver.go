package ownership

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/tokendesk/contractsinfo/internal/blockscout"
)

// singletonFactories are well-known CREATE2 deployer contracts. When one of
// them shows up as a contract's creator, the controlling party is whoever sent
// the creation transaction, not the factory itself.
var singletonFactories = map[common.Address]struct{}{
	// ERC-2470 singleton factory
	common.HexToAddress("0xce0042B868300000d44A59004Da54A005ffdcf9f"): {},
	// Arachnid deterministic-deployment proxy
	common.HexToAddress("0x4e59b44847b379578588920ca78fbf26c0b4956c"): {},
}

// ExplorerClient is the subset of the Blockscout client the resolver needs.
type ExplorerClient interface {
	Address(ctx context.Context, addr common.Address) (*blockscout.AddressInfo, error)
	Transaction(ctx context.Context, hash common.Hash) (*blockscout.Transaction, error)
	ReadMethods(ctx context.Context, addr common.Address) ([]blockscout.Method, error)
	ProxyReadMethods(ctx context.Context, addr common.Address) ([]blockscout.Method, error)
}

// Options is the candidate set for one contract: the effective creator and,
// when the contract exposes a non-zero owner(), that owner. It lives only for
// the duration of one resolution.
type Options struct {
	Creator common.Address
	Owner   *common.Address
}

// Contains reports whether addr is entitled to claim the contract.
func (o Options) Contains(addr common.Address) bool {
	if addr == o.Creator {
		return true
	}
	return o.Owner != nil && addr == *o.Owner
}

// List returns the candidates as a sorted, deduplicated slice.
func (o Options) List() []common.Address {
	out := []common.Address{o.Creator}
	if o.Owner != nil && *o.Owner != o.Creator {
		out = append(out, *o.Owner)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// Resolver derives ownership candidates for contracts via the explorer.
// Stateless; safe for concurrent use.
type Resolver struct {
	client ExplorerClient
}

// NewResolver creates a resolver backed by the given explorer client.
func NewResolver(client ExplorerClient) *Resolver {
	return &Resolver{client: client}
}

// ResolveOwnershipOptions derives the set of addresses entitled to claim
// ownership of contract: the effective creator (unwound through known
// deterministic-deployment factories) and the on-chain owner() value when the
// contract, or its proxy implementation, exposes one.
func (r *Resolver) ResolveOwnershipOptions(ctx context.Context, contract common.Address) (Options, error) {
	info, err := r.client.Address(ctx, contract)
	if err != nil {
		if errors.Is(err, blockscout.ErrNotFound) {
			return Options{}, fmt.Errorf("%w: %s", ErrContractNotFound, contract)
		}
		return Options{}, &RequestError{Err: err}
	}

	if !info.IsContract {
		return Options{}, fmt.Errorf("%w: %s", ErrContractNotFound, contract)
	}
	if !info.IsVerified {
		return Options{}, fmt.Errorf("%w: %s", ErrContractNotVerified, contract)
	}
	if info.CreatorAddressHash == nil {
		return Options{}, fmt.Errorf("%w: %s", ErrNoOwner, contract)
	}

	creator := *info.CreatorAddressHash
	if _, isFactory := singletonFactories[creator]; isFactory {
		if info.CreationTxHash == nil {
			return Options{}, &RequestError{Err: fmt.Errorf("contract %s has no creation transaction hash", contract)}
		}
		tx, err := r.client.Transaction(ctx, *info.CreationTxHash)
		if err != nil {
			return Options{}, &RequestError{Err: err}
		}
		creator = tx.From.Hash
	}

	methods, err := r.fetchAllReadMethods(ctx, contract, info.ImplementationAddress != nil)
	if err != nil {
		return Options{}, err
	}
	owner, err := findOwner(methods)
	if err != nil {
		return Options{}, err
	}

	return Options{Creator: creator, Owner: owner}, nil
}

// fetchAllReadMethods fetches the contract's read-only method list and, when
// the contract is a proxy, the implementation's list concurrently.
func (r *Resolver) fetchAllReadMethods(ctx context.Context, contract common.Address, isProxy bool) ([]blockscout.Method, error) {
	var own, proxied []blockscout.Method

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		methods, err := r.client.ReadMethods(gctx, contract)
		if err != nil {
			return wrapMethodsError(err, contract)
		}
		own = methods
		return nil
	})
	if isProxy {
		g.Go(func() error {
			methods, err := r.client.ProxyReadMethods(gctx, contract)
			if err != nil {
				return wrapMethodsError(err, contract)
			}
			proxied = methods
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return append(own, proxied...), nil
}

func wrapMethodsError(err error, contract common.Address) error {
	if errors.Is(err, blockscout.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrContractNotFound, contract)
	}
	return &RequestError{Err: err}
}

// findOwner searches the method list for a zero-input owner() returning a
// single address. An absent value means no owner; a present but malformed
// value is a hard error. The zero address counts as no owner.
func findOwner(methods []blockscout.Method) (*common.Address, error) {
	for _, m := range methods {
		if m.Name != "owner" || len(m.Inputs) != 0 || len(m.Outputs) != 1 || m.Outputs[0].Type != "address" {
			continue
		}
		value := m.Outputs[0].Value
		if value == nil {
			return nil, nil
		}
		s, ok := value.(string)
		if !ok || !common.IsHexAddress(s) {
			return nil, &RequestError{Err: fmt.Errorf("owner() address field is invalid: %v", value)}
		}
		owner := common.HexToAddress(s)
		if owner == (common.Address{}) {
			return nil, nil
		}
		return &owner, nil
	}
	return nil, nil
}

package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/surefi/surefi-gateway/internal/apperr"
	"github.com/surefi/surefi-gateway/internal/chain"
)

// ErrEmptyResult is returned when eth_call yields no data, which usually
// means there is no contract at the address.
var ErrEmptyResult = errors.New("call returned no data, is the contract deployed and the chain synced?")

// Option configures a Binding.
type Option func(*Binding)

// WithCallTimeout bounds every remote call. Zero leaves calls bounded only by
// the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(b *Binding) {
		b.callTimeout = d
	}
}

// Binding is a read-only proxy for the deployed contract. It holds no mutable
// state and is safe for concurrent use when the caller is.
type Binding struct {
	address     common.Address
	abi         abi.ABI
	caller      ethereum.ContractCaller
	callTimeout time.Duration
}

// Bind validates address and returns a proxy that issues calls through caller.
func Bind(address string, iface *Interface, caller ethereum.ContractCaller, opts ...Option) (*Binding, error) {
	addr, err := chain.NormalizeAddress(address)
	if err != nil {
		return nil, apperr.Configuration("bind", fmt.Errorf("contract address: %w", err))
	}
	if iface == nil {
		return nil, apperr.Configuration("bind", errors.New("nil interface description"))
	}
	if caller == nil {
		return nil, apperr.Configuration("bind", errors.New("nil contract caller"))
	}

	b := &Binding{
		address: addr,
		abi:     iface.ABI(),
		caller:  caller,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Address returns the checksummed contract address.
func (b *Binding) Address() common.Address {
	return b.address
}

// Owner calls owner().
func (b *Binding) Owner(ctx context.Context) (common.Address, error) {
	values, err := b.call(ctx, MethodOwner)
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("decoding %s result: unexpected type %T", MethodOwner, values[0])
	}
	return owner, nil
}

// Verified calls verified(account).
func (b *Binding) Verified(ctx context.Context, account common.Address) (bool, error) {
	values, err := b.call(ctx, MethodVerified, account)
	if err != nil {
		return false, err
	}
	verified, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("decoding %s result: unexpected type %T", MethodVerified, values[0])
	}
	return verified, nil
}

// call runs a single eth_call against the latest block. Errors from the
// caller are returned as they are.
func (b *Binding) call(ctx context.Context, method string, args ...any) ([]any, error) {
	input, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s arguments: %w", method, err)
	}

	if b.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.callTimeout)
		defer cancel()
	}

	to := b.address
	output, err := b.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, err
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}

	values, err := b.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("decoding %s result: no values", method)
	}
	return values, nil
}

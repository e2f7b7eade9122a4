package domain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/surefi/surefi-gateway/internal/apperr"
	"github.com/surefi/surefi-gateway/internal/chain"
)

// Errors returned by the query service. Both are wrapped as validation errors.
var (
	ErrMissingAddress = errors.New("Address parameter is required")
	ErrInvalidAddress = chain.ErrInvalidAddress
)

// ContractReader is the contract proxy the service reads from.
type ContractReader interface {
	Owner(ctx context.Context) (common.Address, error)
	Verified(ctx context.Context, account common.Address) (bool, error)
}

type service struct {
	reader ContractReader
}

// NewService creates a new query service.
func NewService(reader ContractReader) *service {
	return &service{reader: reader}
}

// Owner returns the contract owner.
func (s *service) Owner(ctx context.Context) (*OwnerResult, error) {
	owner, err := s.reader.Owner(ctx)
	if err != nil {
		return nil, apperr.RemoteCall("owner", err)
	}
	return &OwnerResult{Owner: owner.Hex()}, nil
}

// Verified reports whether address is verified. The address is normalized to
// its checksummed form before the call and echoed back in that form.
func (s *service) Verified(ctx context.Context, address string) (*VerifiedResult, error) {
	if address == "" {
		return nil, apperr.Validation("verified", ErrMissingAddress)
	}

	account, err := chain.NormalizeAddress(address)
	if err != nil {
		return nil, apperr.Validation("verified", err)
	}

	verified, err := s.reader.Verified(ctx, account)
	if err != nil {
		return nil, apperr.RemoteCall("verified", err)
	}

	return &VerifiedResult{
		Address:  account.Hex(),
		Verified: verified,
	}, nil
}

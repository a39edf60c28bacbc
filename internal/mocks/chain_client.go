// Code generated manually for testing. Update as needed.

package mocks

import (
	"context"

	"github.com/luxfi/pop/pkg/balance"
	"github.com/luxfi/pop/pkg/contract"
	"github.com/stretchr/testify/mock"
)

// ChainClient is a mock implementation of the node client used by the
// deployment flow: contract.ChainClient plus token metadata.
type ChainClient struct {
	mock.Mock
}

func (m *ChainClient) TokenMetadata(ctx context.Context) (balance.TokenMetadata, error) {
	args := m.Called(ctx)
	return args.Get(0).(balance.TokenMetadata), args.Error(1)
}

func (m *ChainClient) DryRunInstantiate(ctx context.Context, req *contract.InstantiateRequest) (contract.DryRunEstimate, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(contract.DryRunEstimate), args.Error(1)
}

func (m *ChainClient) SubmitInstantiate(ctx context.Context, req *contract.InstantiateRequest, weight contract.Weight) (contract.Address, error) {
	args := m.Called(ctx, req, weight)
	return args.Get(0).(contract.Address), args.Error(1)
}

func (m *ChainClient) Close() {
	m.Called()
}

var _ contract.ChainClient = (*ChainClient)(nil)

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/luxfi/pop/internal/mocks"
	"github.com/luxfi/pop/pkg/contract"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSigner struct{}

func (stubSigner) AccountID() [32]byte { return [32]byte{0xd4, 0x35} }
func (stubSigner) Address() string     { return contract.Address(stubSigner{}.AccountID()).String() }

func newRequest(limit contract.WeightLimit) *contract.InstantiateRequest {
	return contract.NewInstantiateRequest(contract.RequestParams{
		ContractName: "flipper",
		Constructor:  "new",
		Args:         []string{"true"},
		CallData:     []byte{0x9b, 0xae, 0x9d, 0x5e, 0x01},
		Value:        big.NewInt(0),
		WeightLimit:  limit,
		Code:         []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		Signer:       stubSigner{},
		URL:          "ws://localhost:9944",
	})
}

type recordingReporter struct {
	mu        sync.Mutex
	entered   []contract.State
	estimates []contract.DryRunEstimate
	deployed  []contract.Address
	failedAt  []contract.State
	failures  []error
}

func (r *recordingReporter) Entered(s contract.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entered = append(r.entered, s)
}

func (r *recordingReporter) Estimated(e contract.DryRunEstimate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.estimates = append(r.estimates, e)
}

func (r *recordingReporter) Deployed(a contract.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deployed = append(r.deployed, a)
}

func (r *recordingReporter) Failed(s contract.State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedAt = append(r.failedAt, s)
	r.failures = append(r.failures, err)
}

var deployedAddress = contract.Address{0x01, 0x02, 0x03}

func TestDeployFixedWeightSkipsEstimation(t *testing.T) {
	client := &mocks.ChainClient{}
	reporter := &recordingReporter{}
	req := newRequest(contract.FixedWeight(100_000_000, 131_072))
	client.On("SubmitInstantiate", mock.Anything, req, contract.Weight{RefTime: 100_000_000, ProofSize: 131_072}).
		Return(deployedAddress, nil).Once()

	result, err := contract.NewDeployer(client, reporter, nil).Deploy(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, deployedAddress, result.Address)
	require.Equal(t, contract.Weight{RefTime: 100_000_000, ProofSize: 131_072}, result.Weight)
	require.False(t, result.Estimated)

	client.AssertNotCalled(t, "DryRunInstantiate", mock.Anything, mock.Anything)
	client.AssertNumberOfCalls(t, "SubmitInstantiate", 1)
	require.Equal(t, []contract.State{contract.StateSubmitting}, reporter.entered)
	require.Equal(t, []contract.Address{deployedAddress}, reporter.deployed)
	require.Empty(t, reporter.failures)
	require.True(t, req.Submitted())
}

func TestDeployEstimatesWhenNoWeight(t *testing.T) {
	client := &mocks.ChainClient{}
	reporter := &recordingReporter{}
	req := newRequest(contract.ToBeEstimated())
	estimate := contract.DryRunEstimate{
		GasConsumed:    contract.Weight{RefTime: 80_000_000, ProofSize: 90_000},
		GasRequired:    contract.Weight{RefTime: 84_213_000, ProofSize: 98_304},
		StorageDeposit: big.NewInt(1_000),
	}
	client.On("DryRunInstantiate", mock.Anything, req).Return(estimate, nil).Once()
	client.On("SubmitInstantiate", mock.Anything, req, estimate.GasRequired).Return(deployedAddress, nil).Once()

	result, err := contract.NewDeployer(client, reporter, nil).Deploy(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, estimate.GasRequired, result.Weight)
	require.True(t, result.Estimated)

	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "DryRunInstantiate", 1)
	client.AssertNumberOfCalls(t, "SubmitInstantiate", 1)
	require.Equal(t, []contract.State{contract.StateEstimating, contract.StateSubmitting}, reporter.entered)
	require.Equal(t, []contract.DryRunEstimate{estimate}, reporter.estimates)
}

func TestDeployEstimationFailureNeverSubmits(t *testing.T) {
	client := &mocks.ChainClient{}
	reporter := &recordingReporter{}
	req := newRequest(contract.ToBeEstimated())
	trapped := errors.New("contract trapped during execution")
	client.On("DryRunInstantiate", mock.Anything, req).Return(contract.DryRunEstimate{}, trapped).Once()

	_, err := contract.NewDeployer(client, reporter, nil).Deploy(context.Background(), req)
	require.ErrorIs(t, err, contract.ErrEstimationFailed)
	require.ErrorIs(t, err, trapped)
	require.Equal(t, contract.EstimationFailed, contract.KindOf(err))

	client.AssertNotCalled(t, "SubmitInstantiate", mock.Anything, mock.Anything, mock.Anything)
	require.False(t, req.Submitted())
	require.Equal(t, []contract.State{contract.StateEstimating}, reporter.failedAt)
	require.Empty(t, reporter.deployed)
}

func TestDeploySubmissionFailure(t *testing.T) {
	client := &mocks.ChainClient{}
	reporter := &recordingReporter{}
	req := newRequest(contract.ToBeEstimated())
	estimate := contract.DryRunEstimate{GasRequired: contract.Weight{RefTime: 84_213_000, ProofSize: 98_304}}
	insufficient := errors.New("extrinsic failed: Module { index: 10, error: 02000000 }")
	client.On("DryRunInstantiate", mock.Anything, req).Return(estimate, nil).Once()
	client.On("SubmitInstantiate", mock.Anything, req, estimate.GasRequired).Return(contract.Address{}, insufficient).Once()

	result, err := contract.NewDeployer(client, reporter, nil).Deploy(context.Background(), req)
	require.ErrorIs(t, err, contract.ErrSubmissionFailed)
	require.ErrorIs(t, err, insufficient)
	require.Equal(t, contract.Result{}, result)

	client.AssertNumberOfCalls(t, "SubmitInstantiate", 1)
	require.Equal(t, []contract.State{contract.StateSubmitting}, reporter.failedAt)
	require.Empty(t, reporter.deployed)
}

func TestDeployNotBroadcastIsSubmissionFailure(t *testing.T) {
	client := &mocks.ChainClient{}
	req := newRequest(contract.FixedWeight(1, 1))
	client.On("SubmitInstantiate", mock.Anything, req, mock.Anything).
		Return(contract.Address{}, errors.Join(contract.ErrNotBroadcast, errors.New("failed to fetch account nonce"))).Once()

	_, err := contract.NewDeployer(client, nil, nil).Deploy(context.Background(), req)
	require.Equal(t, contract.SubmissionFailed, contract.KindOf(err))
}

func TestDeployCancelledDuringSubmission(t *testing.T) {
	client := &mocks.ChainClient{}
	req := newRequest(contract.FixedWeight(1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.On("SubmitInstantiate", mock.Anything, req, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(contract.Address{}, context.Canceled).Once()

	_, err := contract.NewDeployer(client, nil, nil).Deploy(ctx, req)
	require.ErrorIs(t, err, contract.ErrIndeterminateOutcome)
	require.NotErrorIs(t, err, contract.ErrSubmissionFailed)
	client.AssertNumberOfCalls(t, "SubmitInstantiate", 1)
}

func TestDeployOutcomeUnknown(t *testing.T) {
	client := &mocks.ChainClient{}
	req := newRequest(contract.FixedWeight(1, 1))
	client.On("SubmitInstantiate", mock.Anything, req, mock.Anything).
		Return(contract.Address{}, errors.Join(contract.ErrOutcomeUnknown, errors.New("status subscription closed"))).Once()

	_, err := contract.NewDeployer(client, nil, nil).Deploy(context.Background(), req)
	require.Equal(t, contract.IndeterminateOutcome, contract.KindOf(err))
}

func TestDeployCancelledBeforeSubmission(t *testing.T) {
	client := &mocks.ChainClient{}
	req := newRequest(contract.FixedWeight(1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := contract.NewDeployer(client, nil, nil).Deploy(ctx, req)
	require.ErrorIs(t, err, contract.ErrNetwork)
	require.ErrorIs(t, err, context.Canceled)
	client.AssertNotCalled(t, "SubmitInstantiate", mock.Anything, mock.Anything, mock.Anything)
	require.False(t, req.Submitted())
}

func TestDeployRefusesReusedRequest(t *testing.T) {
	client := &mocks.ChainClient{}
	req := newRequest(contract.FixedWeight(1, 1))
	client.On("SubmitInstantiate", mock.Anything, req, mock.Anything).Return(deployedAddress, nil).Once()
	deployer := contract.NewDeployer(client, nil, nil)

	_, err := deployer.Deploy(context.Background(), req)
	require.NoError(t, err)
	_, err = deployer.Deploy(context.Background(), req)
	require.ErrorIs(t, err, contract.ErrAlreadySubmitted)
	require.ErrorIs(t, err, contract.ErrSubmissionFailed)
	client.AssertNumberOfCalls(t, "SubmitInstantiate", 1)
}

func TestDeployRefusesRequestAfterFailedSubmission(t *testing.T) {
	client := &mocks.ChainClient{}
	req := newRequest(contract.FixedWeight(1, 1))
	client.On("SubmitInstantiate", mock.Anything, req, mock.Anything).Return(contract.Address{}, errors.New("pool rejected")).Once()
	deployer := contract.NewDeployer(client, nil, nil)

	_, err := deployer.Deploy(context.Background(), req)
	require.ErrorIs(t, err, contract.ErrSubmissionFailed)
	_, err = deployer.Deploy(context.Background(), req)
	require.ErrorIs(t, err, contract.ErrAlreadySubmitted)
	client.AssertNumberOfCalls(t, "SubmitInstantiate", 1)
}

func TestDeployConcurrentCallsSubmitOnce(t *testing.T) {
	client := &mocks.ChainClient{}
	req := newRequest(contract.FixedWeight(1, 1))
	client.On("SubmitInstantiate", mock.Anything, req, mock.Anything).Return(deployedAddress, nil)
	deployer := contract.NewDeployer(client, nil, nil)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := deployer.Deploy(context.Background(), req); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, successes)
	client.AssertNumberOfCalls(t, "SubmitInstantiate", 1)
}

func TestRepeatedEstimationIsStable(t *testing.T) {
	client := &mocks.ChainClient{}
	estimate := contract.DryRunEstimate{GasRequired: contract.Weight{RefTime: 84_213_000, ProofSize: 98_304}}
	client.On("DryRunInstantiate", mock.Anything, mock.Anything).Return(estimate, nil)
	client.On("SubmitInstantiate", mock.Anything, mock.Anything, mock.Anything).Return(deployedAddress, nil)
	deployer := contract.NewDeployer(client, nil, nil)

	first, err := deployer.Deploy(context.Background(), newRequest(contract.ToBeEstimated()))
	require.NoError(t, err)
	second, err := deployer.Deploy(context.Background(), newRequest(contract.ToBeEstimated()))
	require.NoError(t, err)
	require.Equal(t, first, second)
	client.AssertNumberOfCalls(t, "DryRunInstantiate", 2)
}

func TestDeployNilRequest(t *testing.T) {
	_, err := contract.NewDeployer(&mocks.ChainClient{}, nil, nil).Deploy(context.Background(), nil)
	require.ErrorIs(t, err, contract.ErrNilRequest)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "awaiting budget", contract.StateAwaitingBudget.String())
	require.Equal(t, "estimating", contract.StateEstimating.String())
	require.Equal(t, "submitting", contract.StateSubmitting.String())
	require.Equal(t, "done", contract.StateDone.String())
	require.Equal(t, "failed", contract.StateFailed.String())
	require.Equal(t, "State(9)", contract.State(9).String())
}

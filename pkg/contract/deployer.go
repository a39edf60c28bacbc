// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	luxlog "github.com/luxfi/log"
)

// State of a single deployment run.
type State int

const (
	StateAwaitingBudget State = iota
	StateEstimating
	StateSubmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingBudget:
		return "awaiting budget"
	case StateEstimating:
		return "estimating"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Done and Failed have no outgoing edges.
var transitions = map[State][]State{
	StateAwaitingBudget: {StateEstimating, StateSubmitting, StateFailed},
	StateEstimating:     {StateSubmitting, StateFailed},
	StateSubmitting:     {StateDone, StateFailed},
}

// DryRunEstimate is the measured resource usage of a simulated instantiation.
type DryRunEstimate struct {
	GasConsumed Weight
	GasRequired Weight
	// StorageDeposit is positive for a charge and negative for a refund.
	StorageDeposit *big.Int
	DebugMessage   string
}

// ChainClient is the network capability the Deployer needs.
type ChainClient interface {
	// DryRunInstantiate simulates the instantiation without a weight limit.
	// It never changes chain state.
	DryRunInstantiate(ctx context.Context, req *InstantiateRequest) (DryRunEstimate, error)
	// SubmitInstantiate signs and submits the instantiation and waits for
	// its inclusion.
	SubmitInstantiate(ctx context.Context, req *InstantiateRequest, weight Weight) (Address, error)
}

// Reporter observes the progress of a deployment.
type Reporter interface {
	Entered(state State)
	Estimated(estimate DryRunEstimate)
	Deployed(address Address)
	Failed(state State, err error)
}

type NopReporter struct{}

func (NopReporter) Entered(State)            {}
func (NopReporter) Estimated(DryRunEstimate) {}
func (NopReporter) Deployed(Address)         {}
func (NopReporter) Failed(State, error)      {}

// Result of a successful deployment.
type Result struct {
	Address   Address
	Weight    Weight
	Estimated bool
}

// Deployer resolves the weight of an InstantiateRequest and submits it.
type Deployer struct {
	client   ChainClient
	reporter Reporter
	log      luxlog.Logger
}

func NewDeployer(client ChainClient, reporter Reporter, log luxlog.Logger) *Deployer {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &Deployer{
		client:   client,
		reporter: reporter,
		log:      log,
	}
}

// Deploy runs AwaitingBudget -> (Estimating) -> Submitting -> Done|Failed for
// req. The submission is attempted at most once and never retried.
func (d *Deployer) Deploy(ctx context.Context, req *InstantiateRequest) (Result, error) {
	if req == nil {
		return Result{}, newError(SubmissionFailed, ErrNilRequest)
	}
	run := &execution{
		deployer: d,
		req:      req,
		state:    StateAwaitingBudget,
		log: d.log.New(
			"contract", req.ContractName(),
			"constructor", req.Constructor(),
		),
	}
	if req.Submitted() {
		return Result{}, run.fail(newError(SubmissionFailed, ErrAlreadySubmitted))
	}

	weight, estimated, err := run.resolveBudget(ctx)
	if err != nil {
		return Result{}, run.fail(err)
	}
	address, err := run.submit(ctx, weight)
	if err != nil {
		return Result{}, run.fail(err)
	}
	if err := run.moveTo(StateDone); err != nil {
		return Result{}, err
	}
	d.reporter.Deployed(address)
	run.log.Info("contract instantiated", "address", address.String())
	return Result{
		Address:   address,
		Weight:    weight,
		Estimated: estimated,
	}, nil
}

// execution is the state of one Deploy call.
type execution struct {
	deployer *Deployer
	req      *InstantiateRequest
	state    State
	log      luxlog.Logger
}

func (e *execution) moveTo(next State) error {
	for _, allowed := range transitions[e.state] {
		if allowed == next {
			e.log.Debug("deployment state", "from", e.state, "to", next)
			e.state = next
			if next != StateDone && next != StateFailed {
				e.deployer.reporter.Entered(next)
			}
			return nil
		}
	}
	return fmt.Errorf("illegal deployment transition %s -> %s", e.state, next)
}

func (e *execution) fail(err error) error {
	from := e.state
	if moveErr := e.moveTo(StateFailed); moveErr != nil {
		return errors.Join(err, moveErr)
	}
	e.deployer.reporter.Failed(from, err)
	e.log.Error("deployment failed", "state", from, "error", err)
	return err
}

func (e *execution) resolveBudget(ctx context.Context) (Weight, bool, error) {
	if weight, ok := e.req.WeightLimit().Fixed(); ok {
		e.log.Info("using caller supplied weight", "weight", weight)
		return weight, false, nil
	}
	if err := e.moveTo(StateEstimating); err != nil {
		return Weight{}, false, err
	}
	e.log.Info("estimating weight with a dry run")
	estimate, err := e.deployer.client.DryRunInstantiate(ctx, e.req)
	if err != nil {
		return Weight{}, false, newError(EstimationFailed, err)
	}
	e.deployer.reporter.Estimated(estimate)
	e.log.Info("dry run succeeded",
		"gasConsumed", estimate.GasConsumed,
		"gasRequired", estimate.GasRequired,
	)
	return estimate.GasRequired, true, nil
}

func (e *execution) submit(ctx context.Context, weight Weight) (Address, error) {
	// nothing was sent yet, so a cancellation here is a clean abort
	if err := ctx.Err(); err != nil {
		return Address{}, newError(NetworkError, fmt.Errorf("deployment aborted before submission: %w", err))
	}
	if !e.req.claimSubmission() {
		return Address{}, newError(SubmissionFailed, ErrAlreadySubmitted)
	}
	if err := e.moveTo(StateSubmitting); err != nil {
		return Address{}, err
	}
	e.log.Info("submitting instantiation", "weight", weight)
	address, err := e.deployer.client.SubmitInstantiate(ctx, e.req, weight)
	if err != nil {
		return Address{}, newError(classifySubmitError(ctx, err), err)
	}
	return address, nil
}

func classifySubmitError(ctx context.Context, err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotBroadcast):
		return SubmissionFailed
	case errors.Is(err, ErrOutcomeUnknown),
		ctx.Err() != nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return IndeterminateOutcome
	default:
		return SubmissionFailed
	}
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package upcmd

import (
	"fmt"

	"github.com/luxfi/pop/pkg/contract"
	"github.com/luxfi/pop/pkg/ux"
)

const (
	dryRunStep = "Doing a dry run to estimate the gas"
	uploadStep = "Uploading and instantiating the contract"
)

// progressReporter renders deployment states as progress steps.
type progressReporter struct {
	progress *ux.ProgressTracker
	step     string
	estimate *contract.DryRunEstimate
}

var _ contract.Reporter = (*progressReporter)(nil)

func newProgressReporter(progress *ux.ProgressTracker) *progressReporter {
	return &progressReporter{progress: progress}
}

func (r *progressReporter) Entered(state contract.State) {
	switch state {
	case contract.StateEstimating:
		r.start(dryRunStep)
	case contract.StateSubmitting:
		r.start(uploadStep)
	}
}

func (r *progressReporter) start(step string) {
	r.step = step
	r.progress.StartStep(step)
}

func (r *progressReporter) Estimated(estimate contract.DryRunEstimate) {
	r.estimate = &estimate
	r.progress.CompleteStep(r.step)
	r.step = ""
	r.progress.PrintInfo(fmt.Sprintf("Gas limit %s", estimate.GasRequired))
}

func (r *progressReporter) Deployed(address contract.Address) {
	r.progress.CompleteStep(r.step)
	r.step = ""
	r.progress.PrintSuccess("Contract deployed and instantiated: The Contract Address is " + address.String())
}

func (r *progressReporter) Failed(_ contract.State, err error) {
	if r.step == "" {
		return
	}
	r.progress.FailStep(r.step, err)
	r.step = ""
}

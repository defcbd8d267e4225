package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atonomi/atonomi-deploy/configs"
	"github.com/atonomi/atonomi-deploy/internal/artifacts"
	"github.com/atonomi/atonomi-deploy/internal/deploy"
	"github.com/atonomi/atonomi-deploy/internal/logger"
	"github.com/atonomi/atonomi-deploy/internal/parameters"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// Deployer is the part of deploy.Deployer the runner drives.
	Deployer interface {
		Deploy(ctx context.Context, req deploy.Request) (deploy.Result, error)
		Registry() *artifacts.Registry
		From() common.Address
	}

	Options struct {
		Params         parameters.Values
		GasPriceGwei   string
		PollInterval   time.Duration
		ReceiptTimeout time.Duration
	}

	StepReport struct {
		Index  int
		Step   Step
		Result deploy.Result
		Err    error
	}

	// Report describes a run. Deployed holds every address confirmed before
	// the run stopped.
	Report struct {
		Manifest string
		Network  configs.NetworkName
		Skipped  bool
		Steps    []StepReport
		Deployed map[artifacts.ContractName]common.Address
	}

	Runner struct {
		deployer Deployer
		opts     Options
		logger   *slog.Logger
	}
)

var _ Deployer = (*deploy.Deployer)(nil)

func NewRunner(deployer Deployer, opts Options) *Runner {
	return &Runner{
		deployer: deployer,
		opts:     opts,
		logger:   logger.Named("manifest"),
	}
}

// Run executes the steps of m in order, waiting for each deployment to be
// mined. It stops at the first failing step and leaves earlier deployments
// in place. A network the manifest does not list yields ErrNetworkNotAllowed
// and no chain activity.
func (r *Runner) Run(ctx context.Context, m *Manifest, network configs.NetworkName) (Report, error) {
	report := Report{
		Manifest: m.Name,
		Network:  network,
		Deployed: make(map[artifacts.ContractName]common.Address),
	}
	log := r.logger.With("manifest", m.Name).With("network", network)

	if !m.Allows(network) {
		report.Skipped = true
		log.With("networks", m.Networks).Info("network not targeted by manifest, skipping")
		return report, fmt.Errorf("%w: %s runs on %v, not %s", ErrNetworkNotAllowed, m.Name, m.Networks, network)
	}

	scope := Scope{
		Owner:    r.deployer.From(),
		Params:   r.opts.Params,
		Deployed: report.Deployed,
	}

	for i, step := range m.Steps {
		stepReport := StepReport{Index: i + 1, Step: step}
		log.With("step", stepReport.Index).Info(step.String())

		var err error
		if step.Link != "" {
			err = r.link(step, scope)
		} else {
			stepReport.Result, err = r.deploy(ctx, step, scope)
		}

		if err != nil {
			stepReport.Err = err
			report.Steps = append(report.Steps, stepReport)
			log.With("step", stepReport.Index).With("err", err.Error()).Error("migration halted")
			return report, fmt.Errorf("step %d (%s): %w", stepReport.Index, step, err)
		}

		if step.Deploy != "" {
			report.Deployed[step.Deploy] = stepReport.Result.Address
		}
		report.Steps = append(report.Steps, stepReport)
	}

	log.With("contracts", len(report.Deployed)).Info("migration complete")
	return report, nil
}

func (r *Runner) link(step Step, scope Scope) error {
	addr, ok := scope.Deployed[step.Link]
	if !ok {
		return fmt.Errorf("library %s has not been deployed by an earlier step", step.Link)
	}
	return r.deployer.Registry().Link(step.Link, addr, step.Into...)
}

func (r *Runner) deploy(ctx context.Context, step Step, scope Scope) (deploy.Result, error) {
	artifact, err := r.deployer.Registry().Get(step.Deploy)
	if err != nil {
		return deploy.Result{}, err
	}

	resolved, err := scope.ResolveAll(step.Args)
	if err != nil {
		return deploy.Result{}, err
	}
	args, err := artifact.ConstructorArgs(resolved...)
	if err != nil {
		return deploy.Result{}, err
	}

	return r.deployer.Deploy(ctx, deploy.Request{
		Contract:       step.Deploy,
		GasPriceGwei:   r.opts.GasPriceGwei,
		Args:           args,
		Wait:           true,
		PollInterval:   r.opts.PollInterval,
		ReceiptTimeout: r.opts.ReceiptTimeout,
	})
}

// Submitted returns the steps that reached the chain, including a failing
// final step whose transaction was sent.
func (r Report) Submitted() []StepReport {
	var out []StepReport
	for _, step := range r.Steps {
		if step.Result.Submitted {
			out = append(out, step)
		}
	}
	return out
}

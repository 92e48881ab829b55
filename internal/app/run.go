package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/engine"
	"github.com/specialistvlad/pdfgrid/internal/fsutil"
	"github.com/specialistvlad/pdfgrid/internal/loader"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/progress"
	"github.com/specialistvlad/pdfgrid/internal/syncplan"
	"github.com/specialistvlad/pdfgrid/modules/http_client"
)

// Run executes the main application logic based on the App's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")
	defer http_client.Close(a.httpClient)

	stopOps := a.startOpsServer(ctx)
	defer stopOps()
	defer a.setPhase(phaseDone)

	a.setPhase(phasePreparing)
	root, plan, err := a.prepare(ctx)
	if err != nil {
		return err
	}

	if a.config.ValidateOnly {
		a.logger.Info("✅ Workflow is valid.", "path", a.config.WorkflowPath, "sync_ids", plan.Len())
		renderPlan(a.outW, root, plan)
		return nil
	}

	inputs, err := readInputs(a.config.InputPaths)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithMaxConcurrency(a.config.Workers),
		engine.WithObserver(a.metrics),
	}
	if a.config.ProgressURL != "" {
		pub, err := progress.Connect(ctx, a.config.ProgressURL, progress.DialOptions{})
		if err != nil {
			a.logger.Warn("Progress channel unavailable, continuing without it.", "url", a.config.ProgressURL, "error", err)
		} else {
			defer pub.Close(ctx)
			opts = append(opts, engine.WithObserver(pub))
		}
	}
	exec := engine.New(a.registry, opts...)

	runCtx := ctx
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	a.setPhase(phaseRunning)
	a.logger.Info("🚀 Starting workflow execution...", "workflow", a.config.WorkflowPath, "inputs", len(inputs))
	results := engine.Collect(exec.Execute(runCtx, root, inputs, plan))
	a.logger.Info("🏁 Execution finished.", "results", len(results))

	a.setPhase(phaseWriting)
	written, werr := writeOutputs(ctx, a.config.OutputPath, a.config.Zip, engine.Buffers(results))
	renderSummary(a.outW, results, written)
	if werr != nil {
		return werr
	}

	if errs := engine.Errors(results); len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d results failed: %w", ErrRunFailed, len(errs), len(results), errors.Join(errs...))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// prepare loads, compiles and validates the workflow.
func (a *App) prepare(ctx context.Context) (*operation.Operation, *syncplan.Plan, error) {
	root, err := loader.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}

	plan, err := syncplan.Compile(root)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}
	a.logger.Debug("Workflow compiled.", "sync_ids", plan.Len())

	if err := a.registry.Validate(root); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}
	a.logger.Debug("Workflow validated against registry.")
	return root, plan, nil
}

// readInputs loads the input documents in order. A directory contributes
// every PDF below it, sorted by path.
func readInputs(paths []string) ([]pdf.Buffer, error) {
	paths, err := fsutil.ExpandPaths(paths, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inputs: %w", err)
	}
	inputs := make([]pdf.Buffer, 0, len(paths))
	for _, p := range paths {
		b, err := pdf.ReadFile(p)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, b)
	}
	return inputs, nil
}

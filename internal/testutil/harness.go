package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/pdfgrid/internal/app"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// OutputDir is where the run wrote its documents.
	OutputDir string
}

// Workflow describes the files of one harness run.
type Workflow struct {
	// File is the workflow file name; its extension selects the format.
	File   string
	Source string
	Inputs []pdf.Buffer
	// Configure may adjust the configuration before the app is built.
	Configure func(*app.Config)
}

// RunWorkflow provides a standardized harness for running a workflow end to
// end using a default background context.
func RunWorkflow(t *testing.T, wf Workflow, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunWorkflowWithContext(context.Background(), t, wf, modules...)
}

// RunWorkflowWithContext writes the workflow and its inputs to a temporary
// directory, runs the app with debug logging and returns what happened.
func RunWorkflowWithContext(ctx context.Context, t *testing.T, wf Workflow, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	inDir := filepath.Join(tmpDir, "in")
	outDir := filepath.Join(tmpDir, "out")
	require.NoError(t, os.Mkdir(inDir, 0o755))

	workflowPath := filepath.Join(tmpDir, wf.File)
	require.NoError(t, os.WriteFile(workflowPath, []byte(wf.Source), 0o644))

	var inputPaths []string
	for i, in := range wf.Inputs {
		name := in.Name
		if name == "" {
			name = fmt.Sprintf("input-%d.pdf", i)
		}
		p := filepath.Join(inDir, name)
		require.NoError(t, os.WriteFile(p, in.Data, 0o644))
		inputPaths = append(inputPaths, p)
	}

	cfg := app.Config{
		WorkflowPath: workflowPath,
		InputPaths:   inputPaths,
		OutputPath:   outDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		Workers:      4,
	}
	if wf.Configure != nil {
		wf.Configure(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(logBuffer, appConfig, modules...)
	runErr := testApp.Run(ctx)

	if os.Getenv("PDFGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		OutputDir: appConfig.OutputPath,
	}
}

package app

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/specialistvlad/pdfgrid/internal/engine"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/syncplan"
)

// renderSummary prints one row per result. written holds the output path of
// each successful result, in order.
func renderSummary(w io.Writer, results []engine.Result, written []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Workflow results")
	t.AppendHeader(table.Row{"#", "Path", "Operation", "Document", "Size", "Digest", "Status"})

	ok, failed, doc := 0, 0, 0
	for i, res := range results {
		path := "-"
		if res.Path != nil {
			path = res.Path.String()
		}
		op := res.Operation
		if op == "" {
			op = "-"
		}
		if res.Failed() {
			failed++
			t.AppendRow(table.Row{i + 1, path, op, "", "", "", res.Err.Error()})
			continue
		}
		ok++
		status := "ok"
		if doc < len(written) {
			status = written[doc]
		}
		doc++
		t.AppendRow(table.Row{i + 1, path, op, res.Buffer.Name, res.Buffer.Size(), res.Buffer.ShortDigest(), status})
	}

	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d document(s)", ok), "", "", fmt.Sprintf("%d failure(s)", failed)})
	t.Render()
}

// renderPlan prints the synchronization points of a validated workflow.
func renderPlan(w io.Writer, root *operation.Operation, plan *syncplan.Plan) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Synchronization plan")
	t.AppendHeader(table.Row{"ID", "Waits", "Wait paths", "Done path", "Resumes with"})

	for _, e := range plan.Entries() {
		var waits []string
		for _, p := range e.WaitPaths {
			waits = append(waits, p.String())
		}
		next := "(outputs)"
		if len(e.Done.Operations) > 0 {
			next = fmt.Sprint(e.Done.Operations)
		}
		t.AppendRow(table.Row{string(e.ID), e.ExpectedArrivals, waits, e.DonePath.String(), next})
	}

	nodes := 0
	operation.Walk(root, func(operation.Path, *operation.Operation) bool {
		nodes++
		return true
	})
	t.AppendFooter(table.Row{fmt.Sprintf("%d id(s)", plan.Len()), "", "", "", fmt.Sprintf("%d node(s)", nodes)})
	t.Render()
}

// Package mcptools exposes the curvature engine as MCP tools.
//
// Each tool is a struct holding its dependencies, with a Definition for
// registration and a Handle compatible with mcp-go's tool handler.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/internal/catalog"
	"github.com/njchilds90/gocurvature/internal/curvature"
)

// ListMetricsTool handles the list_metrics MCP tool.
type ListMetricsTool struct{}

// NewListMetricsTool creates a ListMetricsTool.
func NewListMetricsTool() *ListMetricsTool {
	return &ListMetricsTool{}
}

// Definition returns the MCP tool definition for list_metrics.
func (t *ListMetricsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_metrics",
		mcp.WithDescription("List the predefined spacetime metrics, their coordinates and free parameters."),
	)
}

// Handle processes the list_metrics tool call.
func (t *ListMetricsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("## Metrics\n\n")
	for _, e := range catalog.Entries() {
		m := e.Build()
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", e.Name, e.Description))
		sb.WriteString(fmt.Sprintf("  coordinates (%s), signature %s", strings.Join(m.CoordNames(), ", "), m.Signature))
		if len(m.Params) > 0 {
			sb.WriteString(fmt.Sprintf(", parameters %s", strings.Join(m.Params, ", ")))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ComputeTool handles the compute_curvature MCP tool.
type ComputeTool struct {
	timeout time.Duration
	workers int
	log     *zap.Logger
}

// NewComputeTool creates a ComputeTool. A zero timeout means no deadline
// beyond the caller's context.
func NewComputeTool(timeout time.Duration, workers int, log *zap.Logger) *ComputeTool {
	if log == nil {
		log = zap.NewNop()
	}
	return &ComputeTool{timeout: timeout, workers: workers, log: log}
}

// Definition returns the MCP tool definition for compute_curvature.
func (t *ComputeTool) Definition() mcp.Tool {
	return mcp.NewTool("compute_curvature",
		mcp.WithDescription(
			"Compute one curvature quantity of a predefined metric: the metric itself, "+
				"the Riemann, Ricci or Weyl tensor, the Ricci scalar or the Kretschmann scalar.",
		),
		mcp.WithString("metric",
			mcp.Required(),
			mcp.Description("Metric name"),
			mcp.Enum(metricNames()...),
		),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("Quantity to compute"),
			mcp.Enum(operationNames()...),
		),
		mcp.WithString("substitutions",
			mcp.Description("Comma-separated NAME=VALUE replacements applied to the result, e.g. \"G=1,c=1\""),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default: string)"),
			mcp.Enum(string(curvature.FormatString), string(curvature.FormatLaTeX), string(curvature.FormatJSON)),
		),
	)
}

// Handle processes the compute_curvature tool call.
func (t *ComputeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("metric", "")
	opName := req.GetString("operation", "")
	if name == "" || opName == "" {
		return mcp.NewToolResultError("'metric' and 'operation' are required"), nil
	}

	metric, err := catalog.Lookup(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	op, err := curvature.ParseOperation(opName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := curvature.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := curvature.ParseAssignments([]string{req.GetString("substitutions", "")})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subs, err := curvature.ParseSubstitutions(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	log := t.log.With(zap.String("metric", name), zap.String("operation", opName))
	engine := curvature.New(metric, curvature.WithWorkers(t.workers), curvature.WithLogger(log))

	start := time.Now()
	out, err := engine.Evaluate(ctx, curvature.Request{Operation: op, Substitutions: subs, Format: format})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return mcp.NewToolResultError(fmt.Sprintf("computation timed out after %s", t.timeout)), nil
		case errors.Is(err, curvature.ErrInvalidSubstitution):
			return mcp.NewToolResultError(err.Error()), nil
		}
		log.Error("computation failed", zap.Error(err))
		return mcp.NewToolResultError("symbolic computation failed"), nil
	}
	log.Info("computed", zap.Duration("duration", time.Since(start)))
	return mcp.NewToolResultText(out), nil
}

func metricNames() []string {
	names := catalog.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

func operationNames() []string {
	ops := curvature.Operations()
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = string(op)
	}
	return out
}

package gateway

import (
	"context"
	"sync/atomic"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/pulsefit/gateway/internal/governance"
	"github.com/pulsefit/gateway/pkg/complexity"
	"github.com/pulsefit/gateway/pkg/domain"
)

// Limits are the structural budgets applied to every query. They are held
// behind an atomic pointer so a config reload can swap them without pausing
// traffic.
type Limits struct {
	MaxComplexity int
	MaxDepth      int
	ListFactor    int
}

// DefaultLimits returns the standard budgets.
func DefaultLimits() Limits {
	return Limits{
		MaxComplexity: complexity.DefaultMaxComplexity,
		MaxDepth:      complexity.DefaultMaxDepth,
		ListFactor:    1,
	}
}

// listFields names the operations whose results are collections. Their
// children are scaled by the list factor during cost estimation.
var listFields = map[string]bool{
	"exercises":     true,
	"stats":         true,
	"dailyTrend":    true,
	"weeklySummary": true,
}

// CheckedRequest is a request that has passed every pre-execution check:
// admitted by the rate limiter, syntactically valid, and within the depth
// and complexity budgets. Only checked requests reach resolvers.
type CheckedRequest struct {
	Operation  *ast.OperationDefinition
	Doc        *ast.QueryDocument
	Variables  map[string]any
	Complexity int
	Depth      int
	Decision   governance.Decision
}

// Pipeline runs the pre-execution integrity checks in fixed order: rate
// limiting first (rejected callers must not cost a parse), then parsing,
// then the structural depth and cost budgets.
type Pipeline struct {
	admitter governance.Admitter
	costs    complexity.CostTable
	limits   atomic.Pointer[Limits]
}

// NewPipeline creates a pipeline over the given admitter. A nil costs table
// prices every field at the default cost.
func NewPipeline(admitter governance.Admitter, costs complexity.CostTable, limits Limits) *Pipeline {
	p := &Pipeline{admitter: admitter, costs: costs}
	p.limits.Store(&limits)
	return p
}

// SetLimits atomically replaces the structural budgets. In-flight checks
// keep the limits they started with.
func (p *Pipeline) SetLimits(limits Limits) {
	p.limits.Store(&limits)
}

// Limits returns the current budgets.
func (p *Pipeline) Limits() Limits {
	return *p.limits.Load()
}

// Check runs every pre-execution gate against the request. The returned
// error is one of the domain error types, ready for normalization; the
// CheckedRequest is only meaningful when the error is nil, except that
// Decision is populated whenever admission itself succeeded.
func (p *Pipeline) Check(ctx context.Context, req Request) (CheckedRequest, error) {
	limits := p.Limits()

	decision, err := p.admitter.Admit(ctx, req.Identity)
	if err != nil {
		return CheckedRequest{}, err
	}
	if !decision.Allowed {
		return CheckedRequest{}, &domain.RateError{
			RetryAfter: decision.RetryAfter,
			Limit:      decision.Limit,
			Remaining:  decision.Remaining,
		}
	}
	checked := CheckedRequest{Decision: decision, Variables: req.Variables}

	doc, perr := parser.ParseQuery(&ast.Source{Input: req.Query})
	if perr != nil {
		return checked, domain.NewFieldError("query", domain.CodeInvalidQuery, perr.Error())
	}
	op, err := selectOperation(doc, req.OperationName)
	if err != nil {
		return checked, err
	}
	checked.Operation = op
	checked.Doc = doc

	tree := complexity.FromOperation(op, doc, listFields)

	depth, err := complexity.CheckDepth(tree, limits.MaxDepth)
	checked.Depth = depth
	if err != nil {
		return checked, err
	}

	est := complexity.Estimator{Costs: p.costs, ListFactor: limits.ListFactor}
	score, err := est.Check(tree, limits.MaxComplexity)
	checked.Complexity = score
	if err != nil {
		return checked, err
	}
	return checked, nil
}

// selectOperation resolves which operation in the document to execute. A
// named request must match exactly; an anonymous request requires the
// document to contain a single operation.
func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if name != "" {
		for _, op := range doc.Operations {
			if op.Name == name {
				return op, nil
			}
		}
		return nil, domain.NewFieldError("operationName", domain.CodeUnknownOperation,
			"operation "+name+" is not defined in the query")
	}
	if len(doc.Operations) != 1 {
		return nil, domain.NewFieldError("operationName", domain.CodeUnknownOperation,
			"operationName is required when the query defines multiple operations")
	}
	return doc.Operations[0], nil
}

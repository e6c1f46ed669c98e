package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsefit/gateway/internal/governance"
	"github.com/pulsefit/gateway/pkg/domain"
)

func testPipeline(limits Limits, capacity int) *Pipeline {
	admitter := governance.NewMemoryAdmitter(governance.WindowConfig{
		Window: time.Minute,
		Cap:    capacity,
	}, nil)
	return NewPipeline(admitter, nil, limits)
}

func TestCheckAdmitsValidQuery(t *testing.T) {
	p := testPipeline(DefaultLimits(), 10)

	checked, err := p.Check(context.Background(), Request{
		Query:    `{ exercises(username: "casey@example.com") { id type duration } }`,
		Identity: "casey",
	})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if checked.Depth != 2 {
		t.Errorf("depth = %d, want 2", checked.Depth)
	}
	if checked.Complexity < 1 {
		t.Errorf("complexity = %d, want positive", checked.Complexity)
	}
	if checked.Operation == nil {
		t.Error("expected operation to be selected")
	}
	if !checked.Decision.Allowed {
		t.Error("expected admission decision to be recorded")
	}
}

func TestCheckRejectsOverCap(t *testing.T) {
	p := testPipeline(DefaultLimits(), 1)

	if _, err := p.Check(context.Background(), Request{Query: `{ stats }`, Identity: "casey"}); err != nil {
		t.Fatalf("first request rejected: %v", err)
	}
	_, err := p.Check(context.Background(), Request{Query: `{ stats }`, Identity: "casey"})
	var rateErr *domain.RateError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected rate error, got %v", err)
	}
	if rateErr.Limit != 1 || rateErr.RetryAfter <= 0 {
		t.Errorf("unexpected rate error: %+v", rateErr)
	}
}

func TestCheckRejectsMalformedQuery(t *testing.T) {
	p := testPipeline(DefaultLimits(), 10)

	_, err := p.Check(context.Background(), Request{Query: `{ exercises(`, Identity: "casey"})
	var fieldErr *domain.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected field error, got %v", err)
	}
	if fieldErr.Field != "query" || fieldErr.Code != domain.CodeInvalidQuery {
		t.Errorf("unexpected rejection: %+v", fieldErr)
	}
}

func TestCheckSelectsNamedOperation(t *testing.T) {
	p := testPipeline(DefaultLimits(), 10)
	query := `query A { stats } query B { userStats(username: "casey@example.com") { total } }`

	checked, err := p.Check(context.Background(), Request{Query: query, OperationName: "B", Identity: "casey"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if checked.Operation.Name != "B" {
		t.Errorf("selected operation %q, want B", checked.Operation.Name)
	}

	_, err = p.Check(context.Background(), Request{Query: query, OperationName: "C", Identity: "casey"})
	var fieldErr *domain.FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Code != domain.CodeUnknownOperation {
		t.Fatalf("expected unknown operation error, got %v", err)
	}

	_, err = p.Check(context.Background(), Request{Query: query, Identity: "casey"})
	if !errors.As(err, &fieldErr) || fieldErr.Code != domain.CodeUnknownOperation {
		t.Fatalf("expected anonymous multi-operation rejection, got %v", err)
	}
}

func TestCheckRejectsDeepQuery(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDepth = 2
	p := testPipeline(limits, 10)

	_, err := p.Check(context.Background(), Request{
		Query:    `{ exercises(username: "casey@example.com") { sets { reps } } }`,
		Identity: "casey",
	})
	var limitErr *domain.LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if limitErr.Kind != domain.KindDepthExceeded || limitErr.Computed != 3 {
		t.Errorf("unexpected limit error: %+v", limitErr)
	}
}

func TestCheckRejectsExpensiveQuery(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxComplexity = 3
	p := testPipeline(limits, 10)

	_, err := p.Check(context.Background(), Request{
		Query:    `{ a: stats b: stats c: stats d: stats }`,
		Identity: "casey",
	})
	var limitErr *domain.LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if limitErr.Kind != domain.KindComplexityExceeded || limitErr.Computed != 4 {
		t.Errorf("unexpected limit error: %+v", limitErr)
	}
}

func TestSetLimitsTakesEffect(t *testing.T) {
	p := testPipeline(DefaultLimits(), 10)
	query := `{ a: stats b: stats }`

	if _, err := p.Check(context.Background(), Request{Query: query, Identity: "casey"}); err != nil {
		t.Fatalf("Check failed under default limits: %v", err)
	}

	limits := DefaultLimits()
	limits.MaxComplexity = 1
	p.SetLimits(limits)

	_, err := p.Check(context.Background(), Request{Query: query, Identity: "casey"})
	var limitErr *domain.LimitError
	if !errors.As(err, &limitErr) || limitErr.Kind != domain.KindComplexityExceeded {
		t.Fatalf("expected complexity rejection after limit swap, got %v", err)
	}
}

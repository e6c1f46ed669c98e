package gateway

import (
	"context"
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/pulsefit/gateway/internal/governance"
	"github.com/pulsefit/gateway/pkg/domain"
	"github.com/pulsefit/gateway/pkg/downstream"
	"github.com/pulsefit/gateway/pkg/validate"
)

// Resolver executes checked requests against the downstream services. All
// downstream calls run under the retry policy; argument validation happens
// once per field, before the first attempt, so a rejected input is never
// retried.
type Resolver struct {
	activity  *downstream.ActivityClient
	analytics *downstream.AnalyticsClient
	retry     *governance.Retryer
}

// NewResolver wires the downstream clients under a shared retryer.
func NewResolver(activity *downstream.ActivityClient, analytics *downstream.AnalyticsClient, retry *governance.Retryer) *Resolver {
	return &Resolver{activity: activity, analytics: analytics, retry: retry}
}

// Execute runs every top-level field of the operation in document order and
// returns the raw downstream payloads keyed by response alias. Execution is
// fail-fast: the first field error aborts the request.
func (r *Resolver) Execute(ctx context.Context, checked CheckedRequest) (map[string]json.RawMessage, error) {
	fields := topLevelFields(checked.Operation.SelectionSet, checked.Doc, map[string]bool{})
	data := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		args, err := argMap(f, checked.Variables)
		if err != nil {
			return nil, err
		}
		result, err := r.resolve(ctx, f.Name, args)
		if err != nil {
			return nil, err
		}
		key := f.Name
		if f.Alias != "" {
			key = f.Alias
		}
		data[key] = result
	}
	return data, nil
}

func (r *Resolver) resolve(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	switch name {
	case "addExercise":
		in, err := validate.AddExercise(args)
		if err != nil {
			return nil, err
		}
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.activity.AddExercise(ctx, in)
		})
	case "updateExercise":
		in, err := validate.UpdateExercise(args)
		if err != nil {
			return nil, err
		}
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.activity.UpdateExercise(ctx, in)
		})
	case "deleteExercise":
		id, err := validate.ExerciseID(args)
		if err != nil {
			return nil, err
		}
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.activity.DeleteExercise(ctx, id)
		})
	case "exercises":
		username, err := validate.Username(stringArg(args, "username"))
		if err != nil {
			return nil, err
		}
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.activity.ListExercises(ctx, username)
		})
	case "stats":
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.analytics.Stats(ctx)
		})
	case "userStats":
		username, err := validate.Username(stringArg(args, "username"))
		if err != nil {
			return nil, err
		}
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.analytics.UserStats(ctx, username)
		})
	case "dailyTrend":
		username, err := validate.Username(stringArg(args, "username"))
		if err != nil {
			return nil, err
		}
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.analytics.DailyTrend(ctx, username)
		})
	case "weeklySummary":
		in, err := validate.StatsQuery(args)
		if err != nil {
			return nil, err
		}
		return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
			return r.analytics.WeeklySummary(ctx, in.Username, in.Start, in.End)
		})
	default:
		return nil, domain.NewFieldError(name, domain.CodeUnknownOperation,
			"field "+name+" is not a supported operation")
	}
}

// call executes a single downstream call under the retry policy. The result
// of the last attempt wins.
func (r *Resolver) call(ctx context.Context, fn func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = fn(ctx)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// topLevelFields flattens the operation's selection set into its fields,
// splicing named and inline fragments in place. The seen set breaks spread
// cycles in malformed documents.
func topLevelFields(set ast.SelectionSet, doc *ast.QueryDocument, seen map[string]bool) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			fields = append(fields, s)
		case *ast.InlineFragment:
			fields = append(fields, topLevelFields(s.SelectionSet, doc, seen)...)
		case *ast.FragmentSpread:
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			if frag := doc.Fragments.ForName(s.Name); frag != nil {
				fields = append(fields, topLevelFields(frag.SelectionSet, doc, seen)...)
			}
		}
	}
	return fields
}

// argMap resolves the field's arguments against the request variables.
func argMap(f *ast.Field, vars map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(f.Arguments))
	for _, a := range f.Arguments {
		v, err := a.Value.Value(vars)
		if err != nil {
			return nil, domain.NewFieldError(a.Name, domain.CodeInvalidQuery, err.Error())
		}
		args[a.Name] = v
	}
	return args, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

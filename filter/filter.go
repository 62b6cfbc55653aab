// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package filter evaluates CEL expressions against search results, letting
// callers narrow a search beyond what the Hub API's own parameters support.
package filter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/stacklok/dockerhub-mcp/hub/types"
)

const (
	// maxExpressionLength bounds caller-supplied expressions. Filters are
	// written by hand; anything longer is abuse, not a query.
	maxExpressionLength = 2048

	// costLimit bounds evaluation cost per result.
	costLimit = 100000
)

// ErrInvalidExpression is returned when an expression fails to parse or
// type-check.
var ErrInvalidExpression = errors.New("invalid filter expression")

// ErrEvaluation is returned when a compiled expression fails at runtime or
// yields a non-boolean result.
var ErrEvaluation = errors.New("filter evaluation failed")

// The environment exposes one variable, "result", a map of the search
// result's fields. Built lazily and shared by all filters.
var resultEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("result", cel.MapType(cel.StringType, cel.DynType)),
	)
})

// Filter is a compiled search-result predicate, safe for concurrent use.
type Filter struct {
	source  string
	program cel.Program
}

// Compile parses and type-checks a CEL expression such as
// "result.star_count > 100 && result.is_official". The compiled filter can
// be applied to any number of results.
func Compile(expr string) (*Filter, error) {
	if len(expr) > maxExpressionLength {
		return nil, fmt.Errorf("%w: expression length %d exceeds maximum of %d",
			ErrInvalidExpression, len(expr), maxExpressionLength)
	}

	env, err := resultEnv()
	if err != nil {
		return nil, fmt.Errorf("creating filter environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, issues.Err())
	}

	program, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", expr, err)
	}

	return &Filter{source: expr, program: program}, nil
}

// Source returns the original expression.
func (f *Filter) Source() string {
	return f.source
}

// Matches evaluates the filter against one search result.
func (f *Filter) Matches(result types.SearchResult) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{
		"result": resultContext(result),
	})
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrEvaluation, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrEvaluation, out.Value())
	}
	return matched, nil
}

// Apply returns a copy of resp keeping only matching results. Count still
// reflects the upstream total; callers see how many results the filter
// removed by comparing lengths.
func (f *Filter) Apply(resp *types.SearchResponse) (*types.SearchResponse, error) {
	filtered := *resp
	filtered.Results = make([]types.SearchResult, 0, len(resp.Results))
	for _, result := range resp.Results {
		matched, err := f.Matches(result)
		if err != nil {
			return nil, err
		}
		if matched {
			filtered.Results = append(filtered.Results, result)
		}
	}
	return &filtered, nil
}

// resultContext flattens a search result into the evaluation context. Field
// names mirror the Hub API's JSON so filters read like the wire payload.
func resultContext(result types.SearchResult) map[string]any {
	return map[string]any{
		"repo_name":         result.RepoName,
		"short_description": result.ShortDescription,
		"star_count":        result.StarCount,
		"pull_count":        result.PullCount,
		"repo_owner":        result.RepoOwner,
		"is_official":       result.IsOfficial,
		"is_automated":      result.IsAutomated,
	}
}

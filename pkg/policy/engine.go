package policy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/polisai/statvar/pkg/domain"
)

// Options control Engine construction.
type Options struct {
	// Entrypoint is the boolean decision path (e.g. "variations/allow").
	Entrypoint string
	// Modules contains the Rego modules that should be loaded into the engine.
	Modules map[string]string
}

const defaultEntrypoint = "variations/allow"

// Engine evaluates a boolean policy decision for each variation.
// A prepared query is safe for concurrent evaluation.
type Engine struct {
	entrypoint string
	query      rego.PreparedEvalQuery
}

// NewEngine parses and compiles the supplied modules.
func NewEngine(ctx context.Context, opts Options) (*Engine, error) {
	entry := strings.Trim(strings.TrimSpace(opts.Entrypoint), "/")
	if entry == "" {
		entry = defaultEntrypoint
	}

	if len(opts.Modules) == 0 {
		return nil, errors.New("policy engine requires at least one rego module")
	}

	names := make([]string, 0, len(opts.Modules))
	for name := range opts.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	regoOpts := make([]func(*rego.Rego), 0, len(names)+1)
	regoOpts = append(regoOpts, rego.Query("data."+strings.ReplaceAll(entry, "/", ".")))
	for _, name := range names {
		module, err := ast.ParseModuleWithOpts(name, opts.Modules[name], ast.ParserOptions{RegoVersion: ast.RegoV1})
		if err != nil {
			return nil, fmt.Errorf("parse rego module %q: %w", name, err)
		}
		regoOpts = append(regoOpts, rego.ParsedModule(module))
	}

	prepared, err := rego.New(regoOpts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile rego modules: %w", err)
	}

	return &Engine{entrypoint: entry, query: prepared}, nil
}

// LoadEngine reads a single Rego module from path.
func LoadEngine(ctx context.Context, path, entrypoint string) (*Engine, error) {
	//nolint:gosec // Policy path is controlled by the operator
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return NewEngine(ctx, Options{
		Entrypoint: entrypoint,
		Modules:    map[string]string{filepath.Base(path): string(src)},
	})
}

// Entrypoint returns the decision path in use.
func (e *Engine) Entrypoint() string {
	return e.entrypoint
}

// Allow reports whether the policy admits s.
func (e *Engine) Allow(ctx context.Context, s domain.Stats) (bool, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input(s)))
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrPolicyEvalFailed, err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s returned %T, want bool", domain.ErrPolicyEvalFailed, e.entrypoint, results[0].Expressions[0].Value)
	}
	return allowed, nil
}

// Apply returns the allowed subset of vars, preserving order.
func (e *Engine) Apply(ctx context.Context, vars []domain.Stats) ([]domain.Stats, error) {
	out := make([]domain.Stats, 0, len(vars))
	for _, v := range vars {
		ok, err := e.Allow(ctx, v)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func input(s domain.Stats) map[string]any {
	slots := make([]any, domain.SlotCount)
	for i, v := range s {
		slots[i] = v
	}
	return map[string]any{
		"slots": slots,
		"total": s.Sum(),
	}
}

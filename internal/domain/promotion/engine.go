// Package promotion evaluates order-level discount rules written as CEL
// expressions over the current order facts.
package promotion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/cel-go/cel"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/types"
)

// Kind is how a rule value turns into a discount.
type Kind string

const (
	KindFixed   Kind = "fixed"   // Value in reais
	KindPercent Kind = "percent" // Value in percent of the subtotal
)

// Rule is a discount granted when Condition evaluates to true.
//
// Condition sees: subtotal (double), base_units (int), mode (string),
// client_id (string), channel (string). Example:
//
//	mode == "delivery" && subtotal >= 200.0
type Rule struct {
	ID        string      `json:"id"`
	Reason    string      `json:"reason"`
	Condition string      `json:"condition"`
	Kind      Kind        `json:"kind"`
	Value     types.Money `json:"value"`
}

// Facts describe the order being evaluated.
type Facts struct {
	Subtotal  types.Money
	BaseUnits int
	Mode      string
	ClientID  string
	Channel   string
}

// Applied is the discount chosen for an order.
type Applied struct {
	RuleID string      `json:"ruleId"`
	Reason string      `json:"reason"`
	Value  types.Money `json:"value"`
}

type compiledRule struct {
	Rule
	program cel.Program
}

// Engine holds compiled rules. Safe for concurrent use.
type Engine struct {
	rules []compiledRule
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("base_units", cel.IntType),
		cel.Variable("mode", cel.StringType),
		cel.Variable("client_id", cel.StringType),
		cel.Variable("channel", cel.StringType),
	)
}

// NewEngine validates and compiles rules. An empty list yields an engine
// that never grants a discount.
func NewEngine(rules []Rule) (*Engine, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	seen := make(map[string]struct{}, len(rules))
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[r.ID]; dup {
			return nil, apperror.NewValidation("duplicate promotion rule").
				WithDetail("ruleId", r.ID)
		}
		seen[r.ID] = struct{}{}

		ast, iss := env.Compile(r.Condition)
		if iss != nil && iss.Err() != nil {
			return nil, apperror.NewValidation("invalid promotion condition").
				WithDetail("ruleId", r.ID).
				WithCause(iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, apperror.NewValidation("promotion condition must be boolean").
				WithDetail("ruleId", r.ID)
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %s: %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{Rule: r, program: prg})
	}

	return &Engine{rules: compiled}, nil
}

// LoadRules reads a JSON array of rules.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read promotions file: %w", err)
	}

	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode promotions file: %w", err)
	}
	return rules, nil
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return apperror.NewValidation("promotion rule id is required")
	}
	if strings.TrimSpace(r.Condition) == "" {
		return apperror.NewValidation("promotion condition is required").
			WithDetail("ruleId", r.ID)
	}
	if r.Value.IsNegative() {
		return apperror.NewValidation("promotion value cannot be negative").
			WithDetail("ruleId", r.ID)
	}
	switch r.Kind {
	case KindFixed:
	case KindPercent:
		if r.Value.GreaterThan(types.MoneyFromInt(100)) {
			return apperror.NewValidation("promotion percent cannot exceed 100").
				WithDetail("ruleId", r.ID)
		}
	default:
		return apperror.NewValidation("invalid promotion kind").
			WithDetail("ruleId", r.ID).
			WithDetail("value", string(r.Kind))
	}
	return nil
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Best returns the largest discount among matching rules, or nil when none
// match. Ties go to the rule listed first. Values are rounded to cents.
func (e *Engine) Best(ctx context.Context, f Facts) (*Applied, error) {
	if e == nil || len(e.rules) == 0 {
		return nil, nil
	}

	vars := map[string]any{
		"subtotal":   f.Subtotal.InexactFloat64(),
		"base_units": int64(f.BaseUnits),
		"mode":       f.Mode,
		"client_id":  f.ClientID,
		"channel":    f.Channel,
	}

	var best *Applied
	for _, r := range e.rules {
		out, _, err := r.program.ContextEval(ctx, vars)
		if err != nil {
			return nil, fmt.Errorf("evaluate rule %s: %w", r.ID, err)
		}
		matched, ok := out.Value().(bool)
		if !ok || !matched {
			continue
		}

		value := r.Value
		if r.Kind == KindPercent {
			value = f.Subtotal.Mul(r.Value).Div(types.MoneyFromInt(100))
		}
		value = types.RoundDisplay(value)

		if best == nil || value.GreaterThan(best.Value) {
			best = &Applied{RuleID: r.ID, Reason: r.Reason, Value: value}
		}
	}

	return best, nil
}

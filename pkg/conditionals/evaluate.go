package conditionals

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Evaluate reports whether c holds for the given state and input.
// It has no side effects. A non-nil error is a diagnostic for content that
// could not be evaluated; in that case the result is always false.
func Evaluate(c Condition, view GameStateView, in PlayerInput) (bool, error) {
	switch c := c.(type) {
	case Location:
		return view.GetLocation() == c.Value, nil

	case FlagSet:
		return view.HasFlag(c.Flag), nil

	case FlagNotSet:
		return !view.HasFlag(c.Flag), nil

	case InventoryHas:
		return view.HasItem(c.Item), nil

	case InventoryNotHas:
		return !view.HasItem(c.Item), nil

	case TurnCountInLocation:
		return c.Op.Compare(view.GetTurnCountInLocation(), c.Value)

	case TurnCountGlobal:
		return c.Op.Compare(view.GetTurnCountGlobal(), c.Value)

	case StatCheck:
		return c.Op.Compare(view.Stat(c.Stat), c.Value)

	case PlayerActionKeyword:
		return ContainsAnyKeyword(in.RawText, c.Keywords), nil

	case PlayerIntent:
		if in.Intent == "" {
			return false, nil
		}
		return strings.TrimSpace(in.Intent) == strings.TrimSpace(c.Value), nil

	case PlayerAction:
		chosen := in.ActionID
		if chosen == "" {
			chosen = in.RawText
		}
		chosen = strings.TrimSpace(chosen)
		if chosen == "" {
			return false, nil
		}
		return chosen == strings.TrimSpace(c.Value), nil

	case GameStart:
		return in.GameStart, nil

	case Invalid:
		return false, fmt.Errorf("%w: %s: %s", ErrMalformedCondition, c.RawType, c.Reason)

	case Unknown:
		return false, fmt.Errorf("%w: %q", ErrUnknownCondition, c.RawType)

	default:
		return false, fmt.Errorf("%w: %T", ErrUnknownCondition, c)
	}
}

// EvaluateAll returns true if every condition holds (AND logic).
// An empty list is vacuously true. All conditions are evaluated so that
// every diagnostic is reported.
func EvaluateAll(conds []Condition, view GameStateView, in PlayerInput) (bool, []error) {
	result := true
	var diags []error
	for _, c := range conds {
		ok, err := Evaluate(c, view, in)
		if err != nil {
			diags = append(diags, err)
		}
		if !ok {
			result = false
		}
	}
	return result, diags
}

// EvaluateAny returns true if at least one condition holds (OR logic).
// An empty list is false.
func EvaluateAny(conds []Condition, view GameStateView, in PlayerInput) (bool, []error) {
	result := false
	var diags []error
	for _, c := range conds {
		ok, err := Evaluate(c, view, in)
		if err != nil {
			diags = append(diags, err)
		}
		if ok {
			result = true
		}
	}
	return result, diags
}

// ContainsAnyKeyword reports whether text contains any keyword,
// ignoring case. Blank keywords never match.
func ContainsAnyKeyword(text string, keywords []string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	folded := fold(text)
	for _, kw := range keywords {
		k := fold(kw)
		if k == "" {
			continue
		}
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// fold trims and case-folds s for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

package conditionals

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Invalid holds a recognized condition that is missing required fields.
// Like Unknown, it always evaluates false.
type Invalid struct {
	RawType string
	Reason  string
}

func (i Invalid) Type() string { return i.RawType }
func (Invalid) isCondition()   {}

// Parse converts a decoded condition mapping into its typed variant.
// It never fails: unrecognized tags become Unknown and incomplete ones Invalid.
func Parse(raw map[string]any) Condition {
	tag := strings.TrimSpace(stringParam(raw, "type"))

	switch tag {
	case TypeLocation:
		v := stringParam(raw, "value", "location")
		if v == "" {
			return Invalid{RawType: tag, Reason: "missing value"}
		}
		return Location{Value: v}

	case TypeFlagSet, TypeFlagIsSet:
		v := stringParam(raw, "value", "flag")
		if v == "" {
			return Invalid{RawType: tag, Reason: "missing flag"}
		}
		return FlagSet{Flag: v}

	case TypeFlagNotSet:
		v := stringParam(raw, "value", "flag")
		if v == "" {
			return Invalid{RawType: tag, Reason: "missing flag"}
		}
		return FlagNotSet{Flag: v}

	case TypeInventoryHas:
		v := stringParam(raw, "value", "item_id", "item")
		if v == "" {
			return Invalid{RawType: tag, Reason: "missing item"}
		}
		return InventoryHas{Item: v}

	case TypeInventoryNotHas:
		v := stringParam(raw, "value", "item_id", "item")
		if v == "" {
			return Invalid{RawType: tag, Reason: "missing item"}
		}
		return InventoryNotHas{Item: v}

	case TypeTurnCountInLocation:
		n, ok := intParam(raw, "value")
		if !ok {
			return Invalid{RawType: tag, Reason: "value must be an integer"}
		}
		return TurnCountInLocation{Op: ParseOperator(stringParam(raw, "operator")), Value: n}

	case TypeTurnCountGlobal:
		n, ok := intParam(raw, "value")
		if !ok {
			return Invalid{RawType: tag, Reason: "value must be an integer"}
		}
		return TurnCountGlobal{Op: ParseOperator(stringParam(raw, "operator")), Value: n}

	case TypeStatCheck:
		stat := stringParam(raw, "stat")
		n, ok := intParam(raw, "value")
		if stat == "" || !ok {
			return Invalid{RawType: tag, Reason: "stat_check needs stat and an integer value"}
		}
		return StatCheck{Stat: stat, Op: ParseOperator(stringParam(raw, "operator")), Value: n}

	case TypePlayerActionKeyword:
		kws := stringsParam(raw, "keywords")
		if len(kws) == 0 {
			if v := stringParam(raw, "value"); v != "" {
				kws = []string{v}
			}
		}
		if len(kws) == 0 {
			return Invalid{RawType: tag, Reason: "missing keywords"}
		}
		return PlayerActionKeyword{Keywords: kws}

	case TypePlayerIntent:
		v := stringParam(raw, "value", "intent")
		if v == "" {
			return Invalid{RawType: tag, Reason: "missing intent"}
		}
		return PlayerIntent{Value: v}

	case TypePlayerAction:
		v := stringParam(raw, "value", "action")
		if v == "" {
			return Invalid{RawType: tag, Reason: "missing action"}
		}
		return PlayerAction{Value: v}

	case TypeGameStart:
		return GameStart{}

	default:
		return Unknown{RawType: tag, Params: raw}
	}
}

// List is an ordered list of conditions that decodes from YAML or JSON mappings.
type List []Condition

// UnmarshalYAML decodes a sequence of condition mappings.
func (l *List) UnmarshalYAML(value *yaml.Node) error {
	var raws []map[string]any
	if err := value.Decode(&raws); err != nil {
		return fmt.Errorf("decode conditions: %w", err)
	}
	*l = parseAll(raws)
	return nil
}

// UnmarshalJSON decodes an array of condition objects.
func (l *List) UnmarshalJSON(data []byte) error {
	var raws []map[string]any
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode conditions: %w", err)
	}
	*l = parseAll(raws)
	return nil
}

func parseAll(raws []map[string]any) List {
	out := make(List, 0, len(raws))
	for _, r := range raws {
		out = append(out, Parse(r))
	}
	return out
}

// stringParam returns the first non-empty string found under keys.
func stringParam(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case int, int64, float64:
			return fmt.Sprint(v)
		}
	}
	return ""
}

// intParam handles int from YAML, float64 from JSON and numeric strings.
// Fractional numbers are rejected rather than truncated.
func intParam(raw map[string]any, key string) (int, bool) {
	switch n := raw[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func stringsParam(raw map[string]any, key string) []string {
	var out []string
	switch v := raw[key].(type) {
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" && item != nil {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

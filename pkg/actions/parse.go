package actions

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
	"github.com/jwebster45206/narrative-engine/pkg/effects"
	"gopkg.in/yaml.v3"
)

// Parse converts a decoded action mapping into its typed variant.
// It never fails: unrecognized tags become Unknown and incomplete ones Invalid.
func Parse(raw map[string]any) Action {
	tag := strings.TrimSpace(stringParam(raw, "type"))

	switch tag {
	case TypeSetFlag, TypeClearFlag:
		flag := stringParam(raw, "value", "flag")
		if flag == "" {
			return Invalid{RawType: tag, Reason: "missing flag"}
		}
		if tag == TypeSetFlag {
			return SetFlag{Flag: flag}
		}
		return ClearFlag{Flag: flag}

	case TypeAddItem:
		id := stringParam(raw, "item_id", "value", "item")
		if id == "" {
			return Invalid{RawType: tag, Reason: "missing item_id"}
		}
		return AddItem{
			Item:        id,
			Name:        stringParam(raw, "name"),
			Description: stringParam(raw, "description"),
		}

	case TypeRemoveItem:
		id := stringParam(raw, "value", "item_id", "item")
		if id == "" {
			return Invalid{RawType: tag, Reason: "missing item"}
		}
		return RemoveItem{Item: id}

	case TypeChangeLocation:
		loc := stringParam(raw, "value", "location")
		if loc == "" {
			return Invalid{RawType: tag, Reason: "missing location"}
		}
		return ChangeLocation{Location: loc}

	case TypeUpdateStat:
		stat := stringParam(raw, "stat")
		by, ok := intParam(raw, "change_by")
		if stat == "" || !ok {
			return Invalid{RawType: tag, Reason: "update_stat needs stat and an integer change_by"}
		}
		return UpdateStat{Stat: stat, ChangeBy: by}

	case TypeOverrideNarrative:
		text := stringParam(raw, "text", "value")
		if text == "" {
			return Invalid{RawType: tag, Reason: "missing text"}
		}
		return OverrideNarrative{Text: text}

	case TypeInjectNarrative:
		text := stringParam(raw, "text", "value")
		if text == "" {
			return Invalid{RawType: tag, Reason: "missing text"}
		}
		pos := strings.ToLower(stringParam(raw, "position"))
		if pos != effects.PositionPre {
			pos = effects.PositionPost
		}
		return InjectNarrative{Text: text, Position: pos}

	case TypeModifyPrompt:
		inst := stringParam(raw, "instruction", "value")
		if inst == "" {
			return Invalid{RawType: tag, Reason: "missing instruction"}
		}
		return ModifyPrompt{Instruction: inst}

	case TypeAddChoice:
		c, ok := parseChoice(raw)
		if !ok {
			return Invalid{RawType: tag, Reason: "choice needs a label"}
		}
		return AddChoice{Choice: c}

	case TypePresentChoices:
		items, _ := raw["choices"].([]any)
		var choices []effects.Choice
		for _, item := range items {
			m, ok := toStringMap(item)
			if !ok {
				continue
			}
			if c, ok := parseChoice(m); ok {
				choices = append(choices, c)
			}
		}
		if len(choices) == 0 {
			return Invalid{RawType: tag, Reason: "no valid choices"}
		}
		return PresentChoices{Prompt: stringParam(raw, "prompt"), Choices: choices}

	case TypeEndGame:
		success, _ := raw["success"].(bool)
		var msg *string
		if m := stringParam(raw, "message", "value"); m != "" {
			msg = &m
		}
		return EndGame{Success: success, Message: msg}

	default:
		return Unknown{RawType: tag, Params: raw}
	}
}

// parseChoice reads {label, action, condition}. The action defaults to the label.
func parseChoice(raw map[string]any) (effects.Choice, bool) {
	label := stringParam(raw, "label", "text")
	if label == "" {
		return effects.Choice{}, false
	}
	c := effects.Choice{Label: label, Action: stringParam(raw, "action")}
	if c.Action == "" {
		c.Action = label
	}
	if cond, ok := toStringMap(raw["condition"]); ok {
		c.Condition = conditionals.Parse(cond)
	}
	return c, true
}

// List is an ordered list of actions that decodes from YAML or JSON mappings.
type List []Action

// UnmarshalYAML decodes a sequence of action mappings.
func (l *List) UnmarshalYAML(value *yaml.Node) error {
	var raws []map[string]any
	if err := value.Decode(&raws); err != nil {
		return fmt.Errorf("decode actions: %w", err)
	}
	*l = parseAll(raws)
	return nil
}

// UnmarshalJSON decodes an array of action objects.
func (l *List) UnmarshalJSON(data []byte) error {
	var raws []map[string]any
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode actions: %w", err)
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

func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

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
		return i, err == nil
	default:
		return 0, false
	}
}

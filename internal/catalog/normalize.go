package catalog

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/circularity-cli/internal/model"
)

const maxValue = 5.0

// Normalize maps a raw answer onto the 0-5 response scale. scored is false
// when the answer carries no score: text questions and unanswered (nil)
// questions. An answer that cannot be read for the question type is returned
// with Invalid set so the scorer's policy decides what happens to it.
//
//	boolean     true -> 5, false -> 0
//	percentage  clamp to [0, 100] then /20
//	number      clamp to [0, 5]
//	choice      the question's scale value, or the ordinal position with
//	            choices listed best first; numeric answers pass through
func Normalize(q model.Question, raw any) (resp model.QuestionResponse, scored bool) {
	resp.ID = q.ID
	if raw == nil || q.Type == model.QuestionText {
		return resp, false
	}

	var (
		v  float64
		ok bool
	)
	switch q.Type {
	case model.QuestionBoolean:
		var b bool
		if b, ok = asBool(raw); ok && b {
			v = maxValue
		}
	case model.QuestionPercentage:
		if v, ok = asNumber(raw); ok {
			v = clamp(v, 0, 100) / 20
		}
	case model.QuestionNumber:
		if v, ok = asNumber(raw); ok {
			v = clamp(v, 0, maxValue)
		}
	case model.QuestionChoice:
		v, ok = choiceValue(q, raw)
	default:
		v, ok = asNumber(raw)
	}

	if !ok {
		resp.Invalid = true
		return resp, true
	}
	resp.Value = v
	return resp, true
}

// NormalizeAnswers normalizes a {questionID: answer} map in id order.
// Unknown ids must already be numeric on the 0-5 scale.
func (c *Catalog) NormalizeAnswers(answers map[string]any) []model.QuestionResponse {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.QuestionResponse, 0, len(ids))
	for _, id := range ids {
		raw := answers[id]
		q, ok := c.Question(id)
		if !ok {
			if raw != nil {
				v, numeric := asNumber(raw)
				out = append(out, model.QuestionResponse{ID: id, Value: v, Invalid: !numeric})
			}
			continue
		}
		if r, scored := Normalize(q, raw); scored {
			out = append(out, r)
		}
	}
	return out
}

func choiceValue(q model.Question, raw any) (float64, bool) {
	s, isString := raw.(string)
	if !isString {
		if v, ok := asNumber(raw); ok {
			return clamp(v, 0, maxValue), true
		}
		return 0, false
	}

	want := SectorKey(s)
	for i, c := range q.Choices {
		if SectorKey(c) != want {
			continue
		}
		if len(q.Scale) == len(q.Choices) {
			return clamp(q.Scale[i], 0, maxValue), true
		}
		if len(q.Choices) == 1 {
			return maxValue, true
		}
		return float64(len(q.Choices)-1-i) / float64(len(q.Choices)-1) * maxValue, true
	}

	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && finite(v) {
		return clamp(v, 0, maxValue), true
	}
	return 0, false
}

func asBool(raw any) (bool, bool) {
	switch t := raw.(type) {
	case bool:
		return t, true
	case string:
		switch SectorKey(t) {
		case "true", "oui", "yes", "1":
			return true, true
		case "false", "non", "no", "0":
			return false, true
		}
		return false, false
	}
	if v, ok := asNumber(raw); ok {
		return v > 0, true
	}
	return false, false
}

func asNumber(raw any) (float64, bool) {
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%")), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	return v, finite(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

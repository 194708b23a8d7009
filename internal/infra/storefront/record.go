package storefront

import (
	"math"
	"strconv"
	"strings"
)

// Record is one raw product payload as returned by either retrieval
// strategy. The storefront theme controls the shape, so every field
// access tolerates missing or mistyped values.
type Record map[string]any

func (r Record) str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r Record) strPtr(key string) *string {
	if v, ok := r[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func (r Record) list(key string) []any {
	if v, ok := r[key].([]any); ok {
		return v
	}
	return nil
}

// tags tolerates both a JSON array of strings and a single
// comma-separated string.
func (r Record) tags() []string {
	switch v := r["tags"].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	default:
		return nil
	}
}

// parseMoney normalizes a price field to a decimal amount. Some
// endpoints report decimal strings, others minor-unit integers; an
// integral number above 1000 is treated as minor units. Unparsable
// values degrade to 0.
func parseMoney(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		if x == math.Trunc(x) && x > 1000 {
			return round2(x / 100)
		}
		return x
	case string:
		s := strings.TrimSpace(x)
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return round2(f)
	default:
		return 0
	}
}

// parseQuantity accepts only integral numeric values; anything else is
// an unknown count, reported as nil rather than coerced to zero.
func parseQuantity(v any) *int {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

package harness

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
)

// MatchObject reports whether actual contains expected: every key of an
// expected object must be present and match, arrays must have the same length
// and match element-wise, scalars must be equal with numbers compared by
// value. The error names the first mismatching path.
func MatchObject(actual, expected any) error {
	return match("$", normalize(actual), normalize(expected))
}

func match(path string, actual, expected any) error {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %s", path, describe(actual))
		}
		keys := make([]string, 0, len(exp))
		for k := range exp {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, present := act[k]
			if !present {
				return fmt.Errorf("%s.%s: missing", path, k)
			}
			if err := match(path+"."+k, v, exp[k]); err != nil {
				return err
			}
		}
		return nil

	case []any:
		act, ok := actual.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %s", path, describe(actual))
		}
		if len(act) != len(exp) {
			return fmt.Errorf("%s: expected %d elements, got %d", path, len(exp), len(act))
		}
		for i := range exp {
			if err := match(path+"["+strconv.Itoa(i)+"]", act[i], exp[i]); err != nil {
				return err
			}
		}
		return nil

	default:
		if exp, ok := number(expected); ok {
			act, ok := number(actual)
			if !ok || act.Cmp(exp) != 0 {
				return fmt.Errorf("%s: expected %s, got %s", path, describe(expected), describe(actual))
			}
			return nil
		}
		if !reflect.DeepEqual(actual, expected) {
			return fmt.Errorf("%s: expected %s, got %s", path, describe(expected), describe(actual))
		}
		return nil
	}
}

// number converts any numeric decoding to an exact rational. json.Number is
// parsed from its text so integers above 2^53 keep every digit; floats are
// only the fallback for documents decoded without UseNumber.
func number(v any) (*big.Rat, bool) {
	switch t := v.(type) {
	case json.Number:
		return new(big.Rat).SetString(string(t))
	case int:
		return new(big.Rat).SetInt64(int64(t)), true
	case int64:
		return new(big.Rat).SetInt64(t), true
	case uint64:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(t)), true
	case float32:
		return floatNumber(float64(t))
	case float64:
		return floatNumber(t)
	default:
		return nil, false
	}
}

func floatNumber(f float64) (*big.Rat, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(f), true
}

// normalize maps YAML and JSON decodings onto one shape: map[string]any
// and []any. Numbers keep their decoded type.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case map[string]any:
		return "object"
	case []any:
		return fmt.Sprintf("array(%d)", len(t))
	default:
		return fmt.Sprint(t)
	}
}

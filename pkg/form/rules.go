package form

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

const (
	msgRequired = "Required"
	msgNumber   = "Must be a number"
	msgPattern  = "Invalid format"
)

// compiledRules is the parsed form of a descriptor's declarative rules.
type compiledRules struct {
	required    bool
	requiredMsg string
	min         *float64
	minMsg      string
	max         *float64
	maxMsg      string
	minLen      *int
	minLenMsg   string
	maxLen      *int
	maxLenMsg   string
	pattern     *regexp.Regexp
	patternMsg  string
}

func compileRules(desc model.FieldDescriptor) (compiledRules, error) {
	var rules compiledRules
	for _, rule := range desc.Rules {
		custom := rule.Params["message"]
		switch rule.Kind {
		case model.ValidationRuleRequired:
			rules.required = true
			rules.requiredMsg = orDefault(custom, msgRequired)
		case model.ValidationRuleMin:
			val, err := parseFloatParam(rule)
			if err != nil {
				return rules, err
			}
			rules.min = &val
			rules.minMsg = orDefault(custom, fmt.Sprintf("Must be at least %s", formatNumber(val)))
		case model.ValidationRuleMax:
			val, err := parseFloatParam(rule)
			if err != nil {
				return rules, err
			}
			rules.max = &val
			rules.maxMsg = orDefault(custom, fmt.Sprintf("Must be at most %s", formatNumber(val)))
		case model.ValidationRuleMinLength:
			val, err := parseIntParam(rule)
			if err != nil {
				return rules, err
			}
			rules.minLen = &val
			rules.minLenMsg = orDefault(custom, fmt.Sprintf("Must have at least %d", val))
		case model.ValidationRuleMaxLength:
			val, err := parseIntParam(rule)
			if err != nil {
				return rules, err
			}
			rules.maxLen = &val
			rules.maxLenMsg = orDefault(custom, fmt.Sprintf("Must have at most %d", val))
		case model.ValidationRulePattern:
			expr := rule.Params["pattern"]
			re, err := regexp.Compile(expr)
			if err != nil {
				return rules, errors.Wrapf(err, "form: pattern rule %q", expr)
			}
			rules.pattern = re
			rules.patternMsg = orDefault(custom, msgPattern)
		default:
			return rules, errors.Newf("form: unknown validation rule %q", rule.Kind)
		}
	}
	return rules, nil
}

// check returns the messages of every failing rule. An empty optional value
// skips the remaining rules; a missing required value reports only Required.
func (r compiledRules) check(value any) []string {
	if valuebag.IsEmpty(value) {
		if r.required {
			return []string{r.requiredMsg}
		}
		return nil
	}

	var out []string
	if r.min != nil || r.max != nil {
		num, ok := toFloat(value)
		if !ok {
			out = append(out, msgNumber)
		} else {
			if r.min != nil && num < *r.min {
				out = append(out, r.minMsg)
			}
			if r.max != nil && num > *r.max {
				out = append(out, r.maxMsg)
			}
		}
	}
	if r.minLen != nil || r.maxLen != nil {
		size := lengthOf(value)
		if r.minLen != nil && size < *r.minLen {
			out = append(out, r.minLenMsg)
		}
		if r.maxLen != nil && size > *r.maxLen {
			out = append(out, r.maxLenMsg)
		}
	}
	if r.pattern != nil {
		text, ok := value.(string)
		if !ok {
			text = fmt.Sprint(value)
		}
		if !r.pattern.MatchString(text) {
			out = append(out, r.patternMsg)
		}
	}
	return out
}

func lengthOf(value any) int {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s)
	}
	return valuebag.Len(value)
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseFloatParam(rule model.ValidationRule) (float64, error) {
	raw := strings.TrimSpace(rule.Params["value"])
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "form: %s rule value %q", rule.Kind, raw)
	}
	return val, nil
}

func parseIntParam(rule model.ValidationRule) (int, error) {
	raw := strings.TrimSpace(rule.Params["value"])
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "form: %s rule value %q", rule.Kind, raw)
	}
	return val, nil
}

func formatNumber(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

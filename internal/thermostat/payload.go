package thermostat

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the numeric prefix of a bare payload such as "21.5C".
var leadingNumber = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`)

// Kind tags the variant held by a Value.
type Kind int

// Payload kinds.
const (
	KindString Kind = iota
	KindNumber
	KindStructured
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindStructured:
		return "structured"
	default:
		return "string"
	}
}

// Value is a decoded MQTT payload: a number, an opaque string, or any
// other JSON document (booleans, objects, arrays, null).
type Value struct {
	kind Kind
	num  float64
	str  string
	raw  json.RawMessage
}

// NumberValue returns a number Value.
func NumberValue(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// DecodePayload never fails. It tries JSON first, then the leading number
// of a bare payload, and otherwise keeps the trimmed text as a string. JSON strings that hold a
// number decode as numbers.
func DecodePayload(payload []byte) Value {
	trimmed := bytes.TrimSpace(payload)

	var doc any
	if err := json.Unmarshal(trimmed, &doc); err == nil {
		switch x := doc.(type) {
		case float64:
			return NumberValue(x)
		case string:
			if f, ok := parseNumber(x); ok {
				return NumberValue(f)
			}
			return StringValue(x)
		default:
			raw := make(json.RawMessage, len(trimmed))
			copy(raw, trimmed)
			return Value{kind: KindStructured, raw: raw}
		}
	}

	if f, ok := parseNumber(leadingNumber.FindString(string(trimmed))); ok {
		return NumberValue(f)
	}
	return StringValue(string(trimmed))
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the numeric reading of the value.
func (v Value) Float() (float64, bool) {
	if v.kind == KindNumber {
		return v.num, true
	}
	return 0, false
}

// Bool coerces the value to a boolean: JSON true/false, non-zero numbers,
// or strings strconv.ParseBool accepts.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindNumber:
		return v.num != 0, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.str))
		return b, err == nil
	default:
		var b *bool
		if err := json.Unmarshal(v.raw, &b); err != nil || b == nil {
			return false, false
		}
		return *b, true
	}
}

// Text returns the value as text: strings verbatim, numbers in shortest
// form, structured values as their JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindStructured:
		return string(v.raw)
	default:
		return v.str
	}
}

// String implements fmt.Stringer for logging.
func (v Value) String() string {
	return v.Text()
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PropertyKind uint8

const (
	KindNone PropertyKind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

func (k PropertyKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindTime:
		return "datetime"
	}
	return "none"
}

// PropertyValue holds exactly one of a string, a decimal number, a boolean
// or an instant. Values are built with the constructors below; the zero
// PropertyValue holds nothing.
type PropertyValue struct {
	kind PropertyKind
	str  string
	num  decimal.Decimal
	b    bool
	t    time.Time
}

func StringValue(s string) PropertyValue {
	return PropertyValue{kind: KindString, str: s}
}

func NumberValue(d decimal.Decimal) PropertyValue {
	return PropertyValue{kind: KindNumber, num: d}
}

func IntValue(i int64) PropertyValue {
	return NumberValue(decimal.NewFromInt(i))
}

func BoolValue(b bool) PropertyValue {
	return PropertyValue{kind: KindBool, b: b}
}

func TimeValue(t time.Time) PropertyValue {
	return PropertyValue{kind: KindTime, t: t.UTC()}
}

// PropertyFromAny converts a loosely typed value, as produced by YAML or
// JSON decoding, into a PropertyValue.
func PropertyFromAny(v any) (PropertyValue, error) {
	switch x := v.(type) {
	case PropertyValue:
		if x.kind == KindNone {
			return PropertyValue{}, ErrNoValue
		}
		return x, nil
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint64:
		return NumberValue(decimal.NewFromUint64(x)), nil
	case float64:
		return NumberValue(decimal.NewFromFloat(x)), nil
	case float32:
		return NumberValue(decimal.NewFromFloat32(x)), nil
	case decimal.Decimal:
		return NumberValue(x), nil
	case time.Time:
		return TimeValue(x), nil
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return PropertyValue{}, fmt.Errorf("parsing number %q: %w", x, err)
		}
		return NumberValue(d), nil
	case nil:
		return PropertyValue{}, ErrNoValue
	}
	return PropertyValue{}, fmt.Errorf("unsupported property value type %T", v)
}

func (v PropertyValue) Kind() PropertyKind { return v.kind }

func (v PropertyValue) IsSet() bool { return v.kind != KindNone }

// Value returns the held variant as string, decimal.Decimal, bool or
// time.Time.
func (v PropertyValue) Value() (any, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		return v.num, nil
	case KindBool:
		return v.b, nil
	case KindTime:
		return v.t, nil
	}
	return nil, ErrNoValue
}

func (v PropertyValue) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v PropertyValue) AsNumber() (decimal.Decimal, bool) { return v.num, v.kind == KindNumber }

func (v PropertyValue) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v PropertyValue) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

// Native returns a JSON-friendly representation: numbers become float64 and
// instants become RFC 3339 strings.
func (v PropertyValue) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.InexactFloat64()
	case KindBool:
		return v.b
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	}
	return nil
}

func (v PropertyValue) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	}
	return ""
}

func (v PropertyValue) Equal(o PropertyValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num.Equal(o.num)
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	}
	return true
}

type propertyJSON struct {
	String   *string    `json:"string,omitempty"`
	Number   *string    `json:"number,omitempty"`
	Boolean  *bool      `json:"boolean,omitempty"`
	DateTime *time.Time `json:"datetime,omitempty"`
}

func (v PropertyValue) MarshalJSON() ([]byte, error) {
	var out propertyJSON
	switch v.kind {
	case KindString:
		out.String = &v.str
	case KindNumber:
		s := v.num.String()
		out.Number = &s
	case KindBool:
		out.Boolean = &v.b
	case KindTime:
		out.DateTime = &v.t
	default:
		return nil, ErrNoValue
	}
	return json.Marshal(out)
}

func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	var in propertyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding property value: %w", err)
	}

	set := 0
	for _, present := range []bool{in.String != nil, in.Number != nil, in.Boolean != nil, in.DateTime != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("decoding property value: expected exactly one variant, got %d", set)
	}

	switch {
	case in.String != nil:
		*v = StringValue(*in.String)
	case in.Number != nil:
		d, err := decimal.NewFromString(*in.Number)
		if err != nil {
			return fmt.Errorf("decoding property value: %w", err)
		}
		*v = NumberValue(d)
	case in.Boolean != nil:
		*v = BoolValue(*in.Boolean)
	case in.DateTime != nil:
		*v = TimeValue(*in.DateTime)
	}
	return nil
}

// Properties is an open string-keyed map of typed values.
type Properties map[string]PropertyValue

func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge copies every key of src into p, overwriting existing keys.
func (p Properties) Merge(src Properties) {
	for k, v := range src {
		p[k] = v
	}
}

// Native converts the map for JSON-facing callers.
func (p Properties) Native() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v.Native()
	}
	return out
}

// PropertiesFromMap converts loosely typed values, skipping nil entries.
func PropertiesFromMap(in map[string]any) (Properties, error) {
	out := make(Properties, len(in))
	for k, raw := range in {
		if raw == nil {
			continue
		}
		v, err := PropertyFromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

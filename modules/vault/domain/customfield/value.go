package customfield

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

const DateLayout = "2006-01-02"

// Value is a custom field value tagged with its kind. The zero Value is null.
type Value struct {
	kind   Kind
	text   string
	number float64
	flag   bool
	date   time.Time
}

func Null() Value              { return Value{} }
func Text(s string) Value      { return Value{kind: KindText, text: s} }
func Number(f float64) Value   { return Value{kind: KindNumber, number: f} }
func Bool(b bool) Value        { return Value{kind: KindBool, flag: b} }
func Date(t time.Time) Value   { return Value{kind: KindDate, date: t.UTC().Truncate(24 * time.Hour)} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) String() string { return fmt.Sprint(v.Interface()) }

// Interface returns the value as a plain Go scalar; nil for null.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.number
	case KindBool:
		return v.flag
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return nil
	}
}

// FromAny converts a decoded JSON scalar. Strings in YYYY-MM-DD form become dates.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		if len(x) == len(DateLayout) {
			if t, err := time.Parse(DateLayout, x); err == nil {
				return Date(t), nil
			}
		}
		return Text(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Value{}, fmt.Errorf("custom field number %v is not representable", x)
		}
		return Number(x), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("custom field number %q: %w", x, err)
		}
		return Number(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported custom field value of type %T", raw)
	}
}

// MarshalJSON encodes null as the JSON literal null, never the string "null".
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

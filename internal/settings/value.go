package settings

import (
	"encoding/json"
	"strconv"

	"github.com/sh-sharifi-190/wetransfer/internal/timespan"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindNumber
	KindFileSize
	KindBoolean
	KindString
	KindText
	KindTimespan
	KindOther
)

var kindNames = map[Kind]string{
	KindAbsent:   "absent",
	KindNumber:   "number",
	KindFileSize: "filesize",
	KindBoolean:  "boolean",
	KindString:   "string",
	KindText:     "text",
	KindTimespan: "timespan",
	KindOther:    "other",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is the typed result of resolving a key. The zero Value is Absent.
//
// Numeric kinds may hold the not-a-number sentinel and timespan values may be
// invalid; the accessors report both through their ok result so callers have
// to check before using the payload.
type Value struct {
	kind    Kind
	num     int64
	invalid bool
	flag    bool
	text    string
	span    timespan.Timespan
}

// Absent returns the marker for "no value could be determined".
func Absent() Value { return Value{} }

// Number returns a numeric value.
func Number(n int64) Value { return Value{kind: KindNumber, num: n} }

// FileSize returns a byte count.
func FileSize(n int64) Value { return Value{kind: KindFileSize, num: n} }

// NaN returns the not-a-number sentinel for a numeric kind.
func NaN(kind Kind) Value {
	if kind != KindFileSize {
		kind = KindNumber
	}
	return Value{kind: kind, invalid: true}
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, flag: b} }

// String returns a single-line string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Text returns a multi-line text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Span returns a timespan value.
func Span(ts timespan.Timespan) Value { return Value{kind: KindTimespan, span: ts} }

func invalidSpan(raw string) Value {
	return Value{kind: KindTimespan, invalid: true, text: raw}
}

// Other wraps a raw value of an unrecognized declared type.
func Other(raw string) Value { return Value{kind: KindOther, text: raw} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the absence marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNaN reports whether v is a numeric kind holding the not-a-number sentinel.
func (v Value) IsNaN() bool {
	return (v.kind == KindNumber || v.kind == KindFileSize) && v.invalid
}

// Int returns the number for numeric kinds. ok is false for NaN and non-numeric kinds.
func (v Value) Int() (int64, bool) {
	if (v.kind != KindNumber && v.kind != KindFileSize) || v.invalid {
		return 0, false
	}
	return v.num, true
}

// Bool returns the flag for boolean values.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.flag, true
}

// Text returns the payload of string, text and other values.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString, KindText, KindOther:
		return v.text, true
	default:
		return "", false
	}
}

// Timespan returns the parsed span. ok is false for invalid spans and other kinds.
func (v Value) Timespan() (timespan.Timespan, bool) {
	if v.kind != KindTimespan || v.invalid {
		return timespan.Timespan{}, false
	}
	return v.span, true
}

// Raw returns the text form of v, the representation written into entries.
func (v Value) Raw() string {
	switch v.kind {
	case KindNumber, KindFileSize:
		if v.invalid {
			return "NaN"
		}
		return strconv.FormatInt(v.num, 10)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	case KindTimespan:
		if v.invalid {
			return v.text
		}
		return v.span.String()
	case KindAbsent:
		return ""
	default:
		return v.text
	}
}

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(other Value) bool {
	return v == other
}

// MarshalJSON encodes absent and NaN values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.kind == KindAbsent, v.IsNaN():
		return []byte("null"), nil
	case v.kind == KindNumber, v.kind == KindFileSize:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case v.kind == KindBoolean:
		return []byte(strconv.FormatBool(v.flag)), nil
	case v.kind == KindTimespan && !v.invalid:
		return json.Marshal(v.span)
	default:
		return json.Marshal(v.Raw())
	}
}

// FromAny converts a loosely typed input (as found in update payloads and YAML)
// into a Value. Integral float64 inputs become numbers. ok is false for inputs
// with no scalar form, such as lists and objects.
func FromAny(in any) (v Value, ok bool) {
	switch x := in.(type) {
	case nil:
		return Absent(), true
	case Value:
		return x, true
	case bool:
		return Bool(x), true
	case int:
		return Number(int64(x)), true
	case int64:
		return Number(x), true
	case float64:
		if x == float64(int64(x)) {
			return Number(int64(x)), true
		}
		return String(strconv.FormatFloat(x, 'f', -1, 64)), true
	case string:
		return String(x), true
	case timespan.Timespan:
		return Span(x), true
	default:
		return Absent(), false
	}
}

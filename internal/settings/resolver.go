package settings

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/sh-sharifi-190/wetransfer/internal/timespan"
)

// Resolver produces typed values for configuration keys. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	overrides OverrideTable
	missing   MissingKeyPolicy
}

// NewResolver builds a Resolver from an override table and a missing-key policy.
func NewResolver(overrides OverrideTable, missing MissingKeyPolicy) *Resolver {
	return &Resolver{
		overrides: overrides,
		missing:   missing,
	}
}

// NewDefaultResolver uses DefaultOverrides and DefaultMissingKeyPolicy.
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultOverrides(), DefaultMissingKeyPolicy())
}

// Overrides returns the table the resolver consults first.
func (r *Resolver) Overrides() OverrideTable {
	return r.overrides
}

// Overridden reports whether key is forced by the override table.
func (r *Resolver) Overridden(key string) bool {
	return r.overrides.Has(key)
}

// Resolve returns the effective value of key. Overrides win over anything in
// entries; a nil entry list resolves to Absent; keys missing from the list go
// through the missing-key policy. Resolve never fails: malformed data yields
// NaN or an invalid timespan instead.
func (r *Resolver) Resolve(key string, entries []Entry) Value {
	if forced, ok := r.overrides.Lookup(key); ok {
		return forced
	}

	if entries == nil {
		return Absent()
	}

	entry, ok := findEntry(entries, key)
	if !ok {
		if v, matched := r.missing.Lookup(key); matched {
			return v
		}
		return Absent()
	}

	return Coerce(entry.Type, entry.Raw())
}

// Coerce converts a raw stored value according to its declared type.
func Coerce(t Type, raw string) Value {
	switch t {
	case TypeNumber:
		return parseNumber(raw, KindNumber)
	case TypeFileSize:
		return parseNumber(raw, KindFileSize)
	case TypeBoolean:
		return Bool(raw == "true")
	case TypeString:
		return String(raw)
	case TypeText:
		return Text(raw)
	case TypeTimespan:
		ts, err := timespan.Parse(raw)
		if err != nil {
			return invalidSpan(raw)
		}
		return Span(ts)
	default:
		return Other(raw)
	}
}

func findEntry(entries []Entry, key string) (Entry, bool) {
	for _, entry := range entries {
		if entry.Key == key {
			return entry, true
		}
	}
	return Entry{}, false
}

// parseNumber reads the leading integer of raw the way browsers' parseInt
// does: leading whitespace and a sign are accepted and parsing stops at the
// first non-digit ("42px" is 42, "3.9" is 3). No digits, or a value outside
// int64, yields NaN.
func parseNumber(raw string, kind Kind) Value {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return NaN(kind)
	}

	n, err := strconv.ParseInt(sign+s[:end], 10, 64)
	if err != nil {
		return NaN(kind)
	}

	if kind == KindFileSize {
		return FileSize(n)
	}
	return Number(n)
}

package settings

import (
	"maps"
	"slices"
)

// OverrideTable maps configuration keys to forced values. It is immutable once
// constructed and safe for concurrent reads.
type OverrideTable struct {
	values map[string]Value
}

// NewOverrideTable copies values into a new table.
func NewOverrideTable(values map[string]Value) OverrideTable {
	return OverrideTable{values: maps.Clone(values)}
}

// DefaultOverrides returns the deployment-wide table shipped with this build.
func DefaultOverrides() OverrideTable {
	return NewOverrideTable(map[string]Value{
		"share.allowRegistration":          Bool(true),
		"share.allowUnauthenticatedShares": Bool(true),
		"share.maxExpiration":              Number(525_600_000), // minutes
		"share.maxSize":                    Number(100_000_000_000),
		"share.chunkSize":                  Number(100_000_000),
		"general.appName":                  String("WeTransfer"),
		"general.showHomePage":             Bool(true),
		"share.shareIdLength":              Number(8),
	})
}

// Lookup returns the forced value for key.
func (t OverrideTable) Lookup(key string) (Value, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Has reports whether key is overridden.
func (t OverrideTable) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Len returns the number of overridden keys.
func (t OverrideTable) Len() int {
	return len(t.values)
}

// Keys returns the overridden keys in sorted order.
func (t OverrideTable) Keys() []string {
	return slices.Sorted(maps.Keys(t.values))
}

// Apply returns a copy of entries where every overridden key carries the text
// form of its forced value. Order and length are preserved and entries is not
// modified.
func (t OverrideTable) Apply(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}

	out := make([]Entry, len(entries))
	for i, entry := range entries {
		out[i] = t.applyOne(entry)
	}
	return out
}

// ApplyAdmin is Apply for the admin category view. Overridden entries are also
// flagged as locked.
func (t OverrideTable) ApplyAdmin(entries []AdminEntry) []AdminEntry {
	if entries == nil {
		return nil
	}

	out := make([]AdminEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		out[i].Entry = t.applyOne(entry.Entry)
		out[i].OverrideLocked = t.Has(entry.Key)
	}
	return out
}

func (t OverrideTable) applyOne(entry Entry) Entry {
	forced, ok := t.values[entry.Key]
	if !ok {
		if entry.Value != nil {
			entry.Value = StringPtr(*entry.Value)
		}
		return entry
	}
	entry.Value = StringPtr(forced.Raw())
	return entry
}

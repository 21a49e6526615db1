package settings

import "time"

// Type is the declared kind of a configuration entry.
type Type string

const (
	TypeNumber   Type = "number"
	TypeFileSize Type = "filesize"
	TypeBoolean  Type = "boolean"
	TypeString   Type = "string"
	TypeText     Type = "text"
	TypeTimespan Type = "timespan"
)

// Known reports whether t is one of the declared kinds the resolver coerces.
func (t Type) Known() bool {
	switch t {
	case TypeNumber, TypeFileSize, TypeBoolean, TypeString, TypeText, TypeTimespan:
		return true
	default:
		return false
	}
}

// Entry is one server-declared setting. Value is nil when the server has no
// stored value and DefaultValue applies.
type Entry struct {
	Key          string  `json:"key" yaml:"key"`
	Value        *string `json:"value" yaml:"value"`
	DefaultValue string  `json:"defaultValue" yaml:"defaultValue"`
	Type         Type    `json:"type" yaml:"type"`
}

// Raw returns the stored value, or the default when none is stored.
func (e Entry) Raw() string {
	if e.Value != nil {
		return *e.Value
	}
	return e.DefaultValue
}

// AdminEntry is the privileged view of an entry returned for a category.
type AdminEntry struct {
	Entry `yaml:",inline"`

	Name        string    `json:"name,omitempty" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Secret      bool      `json:"secret" yaml:"secret"`
	Obscured    bool      `json:"obscured" yaml:"obscured"`
	AllowEdit   bool      `json:"allowEdit" yaml:"allowEdit"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`

	// OverrideLocked is set when the effective value comes from the override
	// table and edits to the key will not be observed.
	OverrideLocked bool `json:"overrideLocked" yaml:"-"`
}

// Update is one key of a patch sent to the configuration store. Value holds
// text, a number or a boolean.
type Update struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// StringPtr is a helper for building entries with a stored value.
func StringPtr(s string) *string {
	return &s
}

// Package store reaches the configuration store that owns the persisted
// entries. HTTPStore talks to a remote configuration API; MemoryStore keeps
// entries in process, seeded from YAML.
package store

import (
	"context"
	"io"
	"strings"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
)

// Store is the configuration store the service reads entries from and sends
// patches to.
type Store interface {
	List(ctx context.Context) ([]settings.Entry, error)
	ListCategory(ctx context.Context, category string) ([]settings.AdminEntry, error)
	Patch(ctx context.Context, updates []settings.Update) ([]settings.AdminEntry, error)
	FinishSetup(ctx context.Context) ([]settings.AdminEntry, error)
	SendTestEmail(ctx context.Context, email string) error
	ChangeLogo(ctx context.Context, filename string, logo io.Reader) error
}

// SetupFinishedKey is flipped to true by FinishSetup.
const SetupFinishedKey = "internal.isSetupFinished"

// CategoryOf returns the category of a key, the part before the first dot.
func CategoryOf(key string) string {
	category, _, _ := strings.Cut(key, ".")
	return category
}

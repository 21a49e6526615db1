package store

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"sync"
	"time"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
)

const maxLogoBytes = 5 << 20

// MemoryStore keeps configuration entries in-memory and guards access with a
// RWMutex. It backs standalone mode and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []settings.AdminEntry
	testEmails []string
	logo       []byte
	clock      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for updatedAt stamps.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.clock = clock
	}
}

// NewMemoryStore initialises the store with a copy of entries.
func NewMemoryStore(entries []settings.AdminEntry, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.entries = cloneEntries(entries)
	now := s.clock()
	for i := range s.entries {
		if s.entries[i].UpdatedAt.IsZero() {
			s.entries[i].UpdatedAt = now
		}
	}
	return s
}

// List returns the non-secret entries.
func (s *MemoryStore) List(ctx context.Context) ([]settings.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]settings.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.Secret {
			continue
		}
		out = append(out, cloneEntry(entry).Entry)
	}
	return out, nil
}

// ListCategory returns the admin view of every entry whose key starts with "<category>.".
func (s *MemoryStore) ListCategory(ctx context.Context, category string) ([]settings.AdminEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]settings.AdminEntry, 0)
	for _, entry := range s.entries {
		if CategoryOf(entry.Key) == category {
			out = append(out, cloneEntry(entry))
		}
	}
	return out, nil
}

// Patch validates every update before applying any of them and returns the
// updated entries. A nil update value resets the entry to its default.
func (s *MemoryStore) Patch(ctx context.Context, updates []settings.Update) ([]settings.AdminEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	positions := make([]int, len(updates))
	values := make([]settings.Value, len(updates))
	for i, update := range updates {
		idx := s.indexOf(update.Key)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, update.Key)
		}
		if !s.entries[idx].AllowEdit {
			return nil, fmt.Errorf("%w: %s", ErrReadOnlyKey, update.Key)
		}
		value, ok := settings.FromAny(update.Value)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidValue, update.Key)
		}
		positions[i] = idx
		values[i] = value
	}

	now := s.clock()
	out := make([]settings.AdminEntry, 0, len(updates))
	for i, idx := range positions {
		value := values[i]
		if value.IsAbsent() {
			s.entries[idx].Value = nil
		} else {
			s.entries[idx].Value = settings.StringPtr(value.Raw())
		}
		s.entries[idx].UpdatedAt = now
		out = append(out, cloneEntry(s.entries[idx]))
	}
	return out, nil
}

// FinishSetup sets the setup-finished flag, declaring it when missing.
func (s *MemoryStore) FinishSetup(ctx context.Context) ([]settings.AdminEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(SetupFinishedKey)
	if idx < 0 {
		s.entries = append(s.entries, settings.AdminEntry{
			Entry: settings.Entry{
				Key:          SetupFinishedKey,
				DefaultValue: "false",
				Type:         settings.TypeBoolean,
			},
			Secret: true,
		})
		idx = len(s.entries) - 1
	}
	s.entries[idx].Value = settings.StringPtr("true")
	s.entries[idx].UpdatedAt = s.clock()

	return []settings.AdminEntry{cloneEntry(s.entries[idx])}, nil
}

// SendTestEmail records the address instead of delivering mail.
func (s *MemoryStore) SendTestEmail(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	s.mu.Lock()
	s.testEmails = append(s.testEmails, email)
	s.mu.Unlock()
	return nil
}

// ChangeLogo keeps the uploaded image bytes. Logos over maxLogoBytes are
// rejected whole.
func (s *MemoryStore) ChangeLogo(ctx context.Context, _ string, logo io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(logo, maxLogoBytes+1))
	if err != nil {
		return fmt.Errorf("read logo: %w", err)
	}
	if len(data) == 0 {
		return ErrEmptyLogo
	}
	if len(data) > maxLogoBytes {
		return fmt.Errorf("%w: limit is %d bytes", ErrLogoTooLarge, maxLogoBytes)
	}

	s.mu.Lock()
	s.logo = data
	s.mu.Unlock()
	return nil
}

// TestEmails returns the addresses SendTestEmail was called with.
func (s *MemoryStore) TestEmails() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.testEmails))
	copy(out, s.testEmails)
	return out
}

// LogoSize returns the size of the last uploaded logo.
func (s *MemoryStore) LogoSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logo)
}

func (s *MemoryStore) indexOf(key string) int {
	for i, entry := range s.entries {
		if entry.Key == key {
			return i
		}
	}
	return -1
}

func cloneEntries(src []settings.AdminEntry) []settings.AdminEntry {
	out := make([]settings.AdminEntry, len(src))
	for i, entry := range src {
		out[i] = cloneEntry(entry)
	}
	return out
}

// cloneEntry copies the value pointer so callers cannot write through to the store.
func cloneEntry(entry settings.AdminEntry) settings.AdminEntry {
	if entry.Value != nil {
		entry.Value = settings.StringPtr(*entry.Value)
	}
	return entry
}

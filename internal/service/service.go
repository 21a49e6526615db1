package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
	"github.com/sh-sharifi-190/wetransfer/internal/store"
)

// Service exposes configuration to callers: override-applied reads,
// typed resolution and pass-through writes. It does not cache; every read
// goes to the store.
type Service struct {
	store    store.Store
	resolver *settings.Resolver
	logger   *zap.Logger
}

// New wires a Service. A nil logger disables logging.
func New(st store.Store, resolver *settings.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    st,
		resolver: resolver,
		logger:   logger,
	}
}

// Entries fetches every entry and applies the override table.
func (s *Service) Entries(ctx context.Context) ([]settings.Entry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.Overrides().Apply(entries), nil
}

// EntriesForCategory fetches the admin view of a category and applies the
// override table, flagging locked entries.
func (s *Service) EntriesForCategory(ctx context.Context, category string) ([]settings.AdminEntry, error) {
	entries, err := s.store.ListCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.resolver.Overrides().ApplyAdmin(entries), nil
}

// Resolve returns the typed value of key against entries.
func (s *Service) Resolve(key string, entries []settings.Entry) settings.Value {
	return s.resolver.Resolve(key, entries)
}

// ResolveLive fetches the entries and resolves key against them.
func (s *Service) ResolveLive(ctx context.Context, key string) (settings.Value, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return settings.Absent(), err
	}
	return s.Resolve(key, entries), nil
}

// Overridden reports whether key is forced by the override table.
func (s *Service) Overridden(key string) bool {
	return s.resolver.Overridden(key)
}

// UpdateMany sends updates to the store unchanged and returns the store's
// answer without applying overrides: the result reflects what was persisted.
func (s *Service) UpdateMany(ctx context.Context, updates []settings.Update) ([]settings.AdminEntry, error) {
	for _, update := range updates {
		if s.resolver.Overridden(update.Key) {
			s.logger.Warn("update targets an overridden key; the stored value will not take effect",
				zap.String("key", update.Key),
			)
		}
	}
	return s.store.Patch(ctx, updates)
}

// FinishSetup marks the initial setup as done.
func (s *Service) FinishSetup(ctx context.Context) ([]settings.AdminEntry, error) {
	return s.store.FinishSetup(ctx)
}

// SendTestEmail asks the store to deliver a test message.
func (s *Service) SendTestEmail(ctx context.Context, email string) error {
	return s.store.SendTestEmail(ctx, email)
}

// ChangeLogo replaces the application logo.
func (s *Service) ChangeLogo(ctx context.Context, filename string, logo io.Reader) error {
	return s.store.ChangeLogo(ctx, filename, logo)
}

// IsNewReleaseAvailable always reports false; release checks are disabled.
func (s *Service) IsNewReleaseAvailable(context.Context) (bool, error) {
	return false, nil
}

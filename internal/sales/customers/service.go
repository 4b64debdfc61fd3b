package customers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/unitdesk/internal/shared"
)

// DefaultSuggestLimit caps typeahead results.
const DefaultSuggestLimit = 8

// Service resolves sale/demo contacts to tenant customers.
type Service struct {
	repo         Repository
	logger       *slog.Logger
	suggestLimit int
	suggestions  singleflight.Group
	now          func() time.Time
}

// NewService builds Service. A non-positive suggestLimit uses DefaultSuggestLimit.
func NewService(repo Repository, logger *slog.Logger, suggestLimit int) *Service {
	if suggestLimit <= 0 {
		suggestLimit = DefaultSuggestLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, suggestLimit: suggestLimit, now: time.Now}
}

// Normalize trims the payload and lowercases the email.
func Normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	return in
}

// ResolveOrCreate returns exactly one customer for the payload. A selected
// existing id wins; otherwise the most recently created customer matching
// the phone or the email is reused; otherwise a new customer is created.
func (s *Service) ResolveOrCreate(ctx context.Context, tenantID uuid.UUID, in Input) (Customer, error) {
	in = Normalize(in)
	if in.Name == "" {
		return Customer{}, shared.Validation("customers.resolve", "customer name is required")
	}
	if tenantID == uuid.Nil {
		return Customer{}, shared.Validation("customers.resolve", "tenant is required")
	}

	if in.ExistingID != nil && *in.ExistingID != uuid.Nil {
		c, err := s.repo.Get(ctx, tenantID, *in.ExistingID)
		if err != nil {
			return Customer{}, shared.Store("customers.resolve", err)
		}
		return c, nil
	}

	if in.Phone != "" || in.Email != "" {
		matches, err := s.repo.FindByContact(ctx, tenantID, in.Phone, in.Email)
		if err != nil {
			return Customer{}, shared.Store("customers.resolve", err)
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}

	c := Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      in.Name,
		Phone:     optional(in.Phone),
		Email:     optional(in.Email),
		Address:   optional(in.Address),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Customer{}, shared.Store("customers.resolve", err)
	}
	return c, nil
}

// Suggest returns up to the configured number of customers whose name,
// phone or email contains query, case-insensitively. Failures degrade to an
// empty list. Identical concurrent lookups share one store call.
func (s *Service) Suggest(ctx context.Context, tenantID uuid.UUID, query string) []Customer {
	query = strings.TrimSpace(query)
	if query == "" || tenantID == uuid.Nil {
		return []Customer{}
	}
	key := tenantID.String() + "|" + strings.ToLower(query)
	res, err, _ := s.suggestions.Do(key, func() (any, error) {
		return s.repo.Search(ctx, tenantID, query, s.suggestLimit)
	})
	if err != nil {
		s.logger.Warn("customer suggestion failed", slog.Any("error", err), slog.String("tenant_id", tenantID.String()))
		return []Customer{}
	}
	found := res.([]Customer)
	if len(found) > s.suggestLimit {
		found = found[:s.suggestLimit]
	}
	out := make([]Customer, len(found))
	copy(out, found)
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

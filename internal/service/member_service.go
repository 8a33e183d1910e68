package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PlanSelection is the plan part of a member form
type PlanSelection struct {
	Type      domain.PlanType `json:"type"`
	StartDate string          `json:"start_date"`
	Promotion bool            `json:"promotion"`
}

// MemberInput is the create/update payload for a member
type MemberInput struct {
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Cellphone        string        `json:"cellphone"`
	BirthDate        string        `json:"birth_date"`
	Plan             PlanSelection `json:"plan"`
	ActivityIDs      []string      `json:"activities"`
	AutomaticRenewal bool          `json:"automatic_renewal"`
}

// MemberPage is one page of a member listing
type MemberPage struct {
	Members    []*domain.Member `json:"members"`
	Total      int64            `json:"total"`
	Page       int64            `json:"page"`
	Limit      int64            `json:"limit"`
	TotalPages int64            `json:"total_pages"`
}

// MemberService handles member registration and profile edits
type MemberService struct {
	members    domain.MemberRepository
	activities domain.ActivityRepository
	cache      domain.CacheRepository
	rules      Rules
}

// NewMemberService creates a new MemberService. cache may be nil.
func NewMemberService(members domain.MemberRepository, activities domain.ActivityRepository, cache domain.CacheRepository, rules Rules) *MemberService {
	return &MemberService{
		members:    members,
		activities: activities,
		cache:      cache,
		rules:      rules,
	}
}

// Create registers a member and prices their plan
func (s *MemberService) Create(ctx context.Context, in MemberInput) (*domain.Member, error) {
	member := &domain.Member{}
	if err := s.apply(ctx, member, in); err != nil {
		return nil, err
	}

	if _, err := s.members.GetByEmail(ctx, member.Email); err == nil {
		return nil, domain.ErrDuplicate
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}

	invalidateDashboard(ctx, s.cache)
	return member, nil
}

// Update replaces a member's profile and re-prices the plan.
// The renewal timestamp restarts at the new start date.
func (s *MemberService) Update(ctx context.Context, id string, in MemberInput) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, member, in); err != nil {
		return nil, err
	}

	if other, err := s.members.GetByEmail(ctx, member.Email); err == nil && other.ID != member.ID {
		return nil, domain.ErrDuplicate
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}

	invalidateDashboard(ctx, s.cache)
	return member, nil
}

// Get returns one member
func (s *MemberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	return s.members.GetByID(ctx, id)
}

// All returns every member sorted by name
func (s *MemberService) All(ctx context.Context) ([]*domain.Member, error) {
	return s.members.GetAll(ctx)
}

// List returns a page of members matching search, newest first.
// page is 1-based; limit is clamped to [1, 100].
func (s *MemberService) List(ctx context.Context, search string, page, limit int64) (*MemberPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := domain.MemberFilter{
		Search: strings.TrimSpace(search),
		Skip:   (page - 1) * limit,
		Limit:  limit,
	}

	members, err := s.members.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.members.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &MemberPage{
		Members:    members,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// apply validates in and copies it onto member, pricing the plan from the selected activities
func (s *MemberService) apply(ctx context.Context, member *domain.Member, in MemberInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.NewValidationError("name", "is required")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.NewValidationError("email", "is not a valid address")
	}

	birthDate := member.BirthDate
	if in.BirthDate != "" {
		parsed, err := domain.ParseDate(in.BirthDate, s.rules.loc())
		if err != nil {
			return domain.NewValidationError("birth_date", "invalid date")
		}
		birthDate = parsed
	}

	activityIDs := uniqueIDs(in.ActivityIDs)
	if len(activityIDs) == 0 {
		return domain.NewValidationError("activities", "at least one activity is required")
	}

	activities, err := s.activities.GetByIDs(ctx, activityIDs)
	if err != nil {
		return err
	}
	if len(activities) != len(activityIDs) {
		return fmt.Errorf("activity %s: %w", firstMissing(activityIDs, activities), domain.ErrNotFound)
	}

	quote, err := domain.CalculatePlan(domain.PlanInput{
		Type:       in.Plan.Type,
		StartDate:  in.Plan.StartDate,
		Promotion:  in.Plan.Promotion,
		Activities: activities,
	}, s.rules.Pricing, s.rules.loc())
	if err != nil {
		return err
	}

	member.Name = name
	member.Email = email
	member.Cellphone = strings.TrimSpace(in.Cellphone)
	member.BirthDate = birthDate
	member.ActivityIDs = activityIDs
	member.AutomaticRenewal = in.AutomaticRenewal
	member.Plan = domain.Plan{
		Type:            in.Plan.Type,
		Promotion:       quote.Promotion,
		Price:           quote.Price,
		StartDate:       quote.StartDate,
		ExpirationDate:  quote.ExpirationDate,
		LastRenewalDate: quote.StartDate,
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func firstMissing(ids []string, found []*domain.Activity) string {
	present := make(map[string]bool, len(found))
	for _, a := range found {
		present[a.ID] = true
	}
	for _, id := range ids {
		if !present[id] {
			return id
		}
	}
	return ""
}

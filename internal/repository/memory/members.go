// Package memory holds in-process implementations of the domain repositories.
// They back STORAGE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberRepository stores members in memory
type MemberRepository struct {
	mu      sync.RWMutex
	members map[string]domain.Member
}

// NewMemberRepository constructs an empty member store
func NewMemberRepository() *MemberRepository {
	return &MemberRepository{members: make(map[string]domain.Member)}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func cloneMember(m domain.Member) *domain.Member {
	m.ActivityIDs = append([]string(nil), m.ActivityIDs...)
	return &m
}

func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.members {
		if existing.Email == member.Email {
			return domain.ErrDuplicate
		}
	}

	now := time.Now()
	if member.ID == "" {
		member.ID = newID()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	r.members[member.ID] = *cloneMember(*member)
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members {
		if m.Email == email {
			return cloneMember(m), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemberRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Member{}
	for _, id := range ids {
		if m, ok := r.members[id]; ok {
			out = append(out, cloneMember(m))
		}
	}
	return out, nil
}

func (r *MemberRepository) Update(ctx context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.members[member.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, other := range r.members {
		if id != member.ID && other.Email == member.Email {
			return domain.ErrDuplicate
		}
	}

	member.CreatedAt = existing.CreatedAt
	member.UpdatedAt = time.Now()
	r.members[member.ID] = *cloneMember(*member)
	return nil
}

func (r *MemberRepository) List(ctx context.Context, filter domain.MemberFilter) ([]*domain.Member, error) {
	matched := r.filter(func(m domain.Member) bool { return matchesSearch(m, filter.Search) })
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	if filter.Skip > 0 {
		if filter.Skip >= int64(len(matched)) {
			return []*domain.Member{}, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Limit > 0 && filter.Limit < int64(len(matched)) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *MemberRepository) Count(ctx context.Context, filter domain.MemberFilter) (int64, error) {
	return int64(len(r.filter(func(m domain.Member) bool { return matchesSearch(m, filter.Search) }))), nil
}

func (r *MemberRepository) GetAll(ctx context.Context) ([]*domain.Member, error) {
	all := r.filter(func(domain.Member) bool { return true })
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (r *MemberRepository) GetExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Member, error) {
	return r.filter(func(m domain.Member) bool { return within(m.Plan.ExpirationDate, from, to) }), nil
}

func (r *MemberRepository) CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error) {
	expiring, _ := r.GetExpiringBetween(ctx, from, to)
	return int64(len(expiring)), nil
}

func (r *MemberRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return int64(len(r.filter(func(m domain.Member) bool { return !m.CreatedAt.Before(since) }))), nil
}

func (r *MemberRepository) CountActiveAt(ctx context.Context, at time.Time) (int64, error) {
	active := r.filter(func(m domain.Member) bool {
		return !m.Plan.StartDate.After(at) && !m.Plan.ExpirationDate.Before(at)
	})
	return int64(len(active)), nil
}

func (r *MemberRepository) filter(keep func(domain.Member) bool) []*domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Member{}
	for _, m := range r.members {
		if keep(m) {
			out = append(out, cloneMember(m))
		}
	}
	return out
}

func matchesSearch(m domain.Member, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(m.Name), needle) ||
		strings.Contains(strings.ToLower(m.Email), needle)
}

// within reports from <= t <= to
func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

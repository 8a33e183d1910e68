package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DashboardService builds the consolidated operations report
type DashboardService struct {
	members       domain.MemberRepository
	activities    domain.ActivityRepository
	payments      domain.PaymentRepository
	notifications domain.NotificationRepository
	cache         domain.CacheRepository
	cacheTTL      time.Duration
	rules         Rules
}

// NewDashboardService creates a new DashboardService. With a nil cache or a
// zero TTL every call hits the stores.
func NewDashboardService(
	members domain.MemberRepository,
	activities domain.ActivityRepository,
	payments domain.PaymentRepository,
	notifications domain.NotificationRepository,
	cache domain.CacheRepository,
	cacheTTL time.Duration,
	rules Rules,
) *DashboardService {
	return &DashboardService{
		members:       members,
		activities:    activities,
		payments:      payments,
		notifications: notifications,
		cache:         cache,
		cacheTTL:      cacheTTL,
		rules:         rules,
	}
}

// GetDashboard returns the report, served from cache when fresh
func (s *DashboardService) GetDashboard(ctx context.Context) (*domain.Dashboard, error) {
	if s.cache != nil && s.cacheTTL > 0 {
		var cached domain.Dashboard
		err := s.cache.Get(ctx, DashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[Dashboard] Cache read failed: %v", err)
		}
	}

	dashboard, err := s.Build(ctx)
	if err != nil {
		log.Printf("[Dashboard] Failed to build report: %v", err)
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, DashboardCacheKey, dashboard, s.cacheTTL); err != nil {
			log.Printf("[Dashboard] Cache write failed: %v", err)
		}
	}
	return dashboard, nil
}

// Build computes the report from the stores. Sub-queries run concurrently and
// the first failure aborts the whole report. The queries do not share a
// snapshot, so concurrent writes can make the parts slightly inconsistent.
func (s *DashboardService) Build(ctx context.Context) (*domain.Dashboard, error) {
	now := s.rules.now()
	loc := s.rules.loc()
	window := newMonthWindow(now, loc)

	dashboard := &domain.Dashboard{
		MonthsReference:      window.keys(),
		IncomeByMonth:        make([]int64, len(window)),
		ActiveMembersByMonth: make([]int64, len(window)),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.members.Count(gCtx, domain.MemberFilter{})
		if err != nil {
			return fmt.Errorf("members count: %w", err)
		}
		dashboard.MembersCount = n
		return nil
	})

	g.Go(func() error {
		n, err := s.members.CountCreatedSince(gCtx, now.AddDate(0, 0, -30))
		if err != nil {
			return fmt.Errorf("new members count: %w", err)
		}
		dashboard.MembersJoinedLast30Days = n
		return nil
	})

	g.Go(func() error {
		n, err := s.activities.Count(gCtx)
		if err != nil {
			return fmt.Errorf("activities count: %w", err)
		}
		dashboard.TotalActivities = n
		return nil
	})

	g.Go(func() error {
		n, err := s.members.CountExpiringBetween(gCtx, now, now.Add(s.rules.lookAhead()))
		if err != nil {
			return fmt.Errorf("expiring count: %w", err)
		}
		dashboard.ExpiringMembersCount = n
		return nil
	})

	g.Go(func() error {
		sums, err := s.payments.SumByMonth(gCtx, window.start(), now, loc)
		if err != nil {
			return fmt.Errorf("income by month: %w", err)
		}
		dashboard.IncomeByMonth = window.bucketIncome(sums)
		return nil
	})

	// One checkpoint per bucket; each writes only its own index
	for i, monthStart := range window {
		i, monthStart := i, monthStart
		g.Go(func() error {
			n, err := s.members.CountActiveAt(gCtx, monthStart)
			if err != nil {
				return fmt.Errorf("active members at %s: %w", monthStart.Format("2006-01"), err)
			}
			dashboard.ActiveMembersByMonth[i] = n
			return nil
		})
	}

	g.Go(func() error {
		payments, err := s.payments.List(gCtx)
		if err != nil {
			return fmt.Errorf("payments: %w", err)
		}
		total, income, members := splitByActivity(payments)
		dashboard.TotalIncome = total

		incomes, counts, err := s.resolveActivities(gCtx, income, members)
		if err != nil {
			return err
		}
		dashboard.ActivityIncome = incomes
		dashboard.ActivityMembers = counts
		return nil
	})

	g.Go(func() error {
		notifications, err := s.notifications.List(gCtx)
		if err != nil {
			return fmt.Errorf("notifications: %w", err)
		}
		dashboard.Notifications = notifications
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// splitByActivity sums all payments and divides each payment's amount evenly
// across its activities. Every activity on a payment also gains one member.
func splitByActivity(payments []*domain.Payment) (int64, map[string]float64, map[string]int) {
	var total int64
	income := make(map[string]float64)
	members := make(map[string]int)

	for _, p := range payments {
		total += p.Amount
		ids := uniqueIDs(p.ActivityIDs)
		if len(ids) == 0 {
			continue
		}
		share := float64(p.Amount) / float64(len(ids))
		for _, id := range ids {
			income[id] += share
			members[id]++
		}
	}
	return total, income, members
}

func (s *DashboardService) resolveActivities(ctx context.Context, income map[string]float64, members map[string]int) ([]domain.ActivityIncome, []domain.ActivityMembers, error) {
	ids := make([]string, 0, len(income))
	for id := range income {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	byID := make(map[string]*domain.Activity, len(ids))
	if len(ids) > 0 {
		activities, err := s.activities.GetByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("activity details: %w", err)
		}
		for _, a := range activities {
			byID[a.ID] = a
		}
	}

	incomes := make([]domain.ActivityIncome, 0, len(ids))
	counts := make([]domain.ActivityMembers, 0, len(ids))
	for _, id := range ids {
		incomes = append(incomes, domain.ActivityIncome{ActivityID: id, Activity: byID[id], Income: income[id]})
		counts = append(counts, domain.ActivityMembers{ActivityID: id, Activity: byID[id], Members: members[id]})
	}

	sort.SliceStable(incomes, func(i, j int) bool { return incomes[i].Income > incomes[j].Income })
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Members > counts[j].Members })
	return incomes, counts, nil
}

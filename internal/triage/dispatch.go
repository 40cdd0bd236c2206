package triage

import (
	"sort"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// SelectProvider picks the provider that should receive a new complaint:
// the first idle provider in listing order when one exists, otherwise the
// globally least-loaded provider. Ties keep listing order. Returns nil when
// the pool is empty; callers must leave the complaint unassigned.
//
// This is advisory at creation time only; existing assignments are never
// rebalanced.
func SelectProvider(pool []domain.ProviderLoad) *domain.Provider {
	if len(pool) == 0 {
		return nil
	}

	sorted := make([]domain.ProviderLoad, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Load < sorted[j].Load
	})

	for _, entry := range sorted {
		if entry.Load == 0 {
			provider := entry.Provider
			return &provider
		}
	}
	provider := sorted[0].Provider
	return &provider
}

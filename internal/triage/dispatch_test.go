package triage

import (
	"testing"

	"github.com/civicdesk/complaint-service/internal/domain"
)

func loadEntry(id string, load int) domain.ProviderLoad {
	return domain.ProviderLoad{
		Provider: domain.Provider{ID: id, Name: "provider " + id},
		Load:     load,
	}
}

func TestSelectProviderEmptyPool(t *testing.T) {
	if got := SelectProvider(nil); got != nil {
		t.Fatalf("expected nil for empty pool, got %+v", got)
	}
	if got := SelectProvider([]domain.ProviderLoad{}); got != nil {
		t.Fatalf("expected nil for empty pool, got %+v", got)
	}
}

func TestSelectProviderPrefersIdle(t *testing.T) {
	pool := []domain.ProviderLoad{
		loadEntry("a", 2),
		loadEntry("b", 0),
		loadEntry("c", 1),
	}

	got := SelectProvider(pool)
	if got == nil || got.ID != "b" {
		t.Fatalf("expected idle provider b, got %+v", got)
	}
}

func TestSelectProviderLeastLoadedWhenNoneIdle(t *testing.T) {
	pool := []domain.ProviderLoad{
		loadEntry("a", 3),
		loadEntry("b", 1),
		loadEntry("c", 2),
	}

	got := SelectProvider(pool)
	if got == nil || got.ID != "b" {
		t.Fatalf("expected least-loaded provider b, got %+v", got)
	}
}

func TestSelectProviderTieKeepsListingOrder(t *testing.T) {
	cases := []struct {
		name string
		pool []domain.ProviderLoad
		want string
	}{
		{
			name: "idle tie",
			pool: []domain.ProviderLoad{loadEntry("a", 0), loadEntry("b", 0)},
			want: "a",
		},
		{
			name: "loaded tie",
			pool: []domain.ProviderLoad{loadEntry("a", 2), loadEntry("b", 2)},
			want: "a",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectProvider(tc.pool)
			if got == nil || got.ID != tc.want {
				t.Fatalf("expected %s, got %+v", tc.want, got)
			}
		})
	}
}

func TestSelectProviderDoesNotMutateInput(t *testing.T) {
	pool := []domain.ProviderLoad{
		loadEntry("a", 2),
		loadEntry("b", 1),
	}

	_ = SelectProvider(pool)
	if pool[0].Provider.ID != "a" || pool[1].Provider.ID != "b" {
		t.Fatal("input slice order must not change")
	}
}

package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"flat_bot/internal/model"
)

func TestPolicyAllow(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		price  int
		want   bool
	}{
		{name: "no cap set", policy: Policy{}, price: 99999, want: true},
		{name: "below cap", policy: Policy{MaxPrice: 500}, price: 499, want: true},
		{name: "at cap is excluded", policy: Policy{MaxPrice: 500}, price: 500, want: false},
		{name: "above cap", policy: Policy{MaxPrice: 500}, price: 501, want: false},
		{name: "unparseable price passes", policy: Policy{MaxPrice: 500}, price: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Allow(model.Offer{ID: "1", Price: tt.price})
			if got != tt.want {
				t.Errorf("Allow(price=%d) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestPolicyApplyPreservesOrder(t *testing.T) {
	offers := []model.Offer{
		{ID: "a", Price: 400},
		{ID: "b", Price: 600},
		{ID: "c", Price: 450},
	}

	got := Policy{MaxPrice: 500}.Apply(offers)
	want := []model.Offer{
		{ID: "a", Price: 400},
		{ID: "c", Price: 450},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}

package businessflow

import (
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sigtrack/sigtrack/models"
)

// Eligibility is the verdict of evaluating whether a banner may be served
type Eligibility string

const (
	EligibilityEligible      Eligibility = "eligible"
	EligibilityInactive      Eligibility = "inactive"
	EligibilityOutsideWindow Eligibility = "outside_window"
	EligibilityCapReached    Eligibility = "cap_reached"
	EligibilityNotTargeted   Eligibility = "not_targeted"
)

// String returns the string representation of the verdict
func (e Eligibility) String() string {
	return string(e)
}

// TargetingContext carries the recipient attributes a banner's targeting
// facets are matched against
type TargetingContext struct {
	Department string
	Device     string
	Geo        string
	Audience   string
}

// EvaluateEligibility judges a banner against a point in time and an optional
// recipient context. Checks run in a fixed order so the verdict is
// deterministic: active flag, validity window (bounds inclusive, unset means
// unbounded), click cap, targeting. A nil TargetingContext skips the
// targeting check entirely; the click path has no recipient attributes and
// must not reject on targeting grounds.
func EvaluateEligibility(b *models.Banner, at time.Time, tc *TargetingContext) Eligibility {
	if !isActive(b) {
		return EligibilityInactive
	}
	if b.StartDate != nil && at.Before(*b.StartDate) {
		return EligibilityOutsideWindow
	}
	if b.EndDate != nil && at.After(*b.EndDate) {
		return EligibilityOutsideWindow
	}
	if b.CapReached() {
		return EligibilityCapReached
	}
	if tc != nil && !matchesTargeting(b.Targeting, tc) {
		return EligibilityNotTargeted
	}
	return EligibilityEligible
}

// SelectBanner picks the banner to serve for a placement from the given
// candidates: the eligible banner with the lowest priority value, breaking
// ties by most recent creation time. Returns nil when nothing is eligible.
func SelectBanner(banners []*models.Banner, at time.Time, tc *TargetingContext) *models.Banner {
	eligible := make([]*models.Banner, 0, len(banners))
	for _, b := range banners {
		if EvaluateEligibility(b, at, tc) == EligibilityEligible {
			eligible = append(eligible, b)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		return eligible[i].CreatedAt.After(eligible[j].CreatedAt)
	})
	return eligible[0]
}

func isActive(b *models.Banner) bool {
	return b.IsActive != nil && *b.IsActive
}

// matchesTargeting applies the facet rules: a banner with no facets at all
// matches everyone; otherwise at least one populated facet has to match the
// corresponding recipient attribute.
func matchesTargeting(spec models.TargetingSpec, tc *TargetingContext) bool {
	if spec.IsEmpty() {
		return true
	}
	return facetMatches(spec.TargetDepartments, tc.Department) ||
		facetMatches(spec.DeviceTargeting, tc.Device) ||
		facetMatches(spec.GeoTargeting, tc.Geo) ||
		facetMatches(spec.TargetAudience, tc.Audience)
}

func facetMatches(facet pq.StringArray, value string) bool {
	if len(facet) == 0 || value == "" {
		return false
	}
	for _, entry := range facet {
		if strings.EqualFold(strings.TrimSpace(entry), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

package ai

import (
	"fmt"
	"sort"
	"strings"
)

var (
	electronicsWords = []string{"laptop", "computer", "tablet", "phone", "tv", "monitor", "electronic"}
	fragileWords     = []string{"glass", "crystal", "fragile", "ceramic", "porcelain"}
)

const heavyThresholdKg = 10.0

// RuleBasedGuidance builds deterministic loading guidance from the plan alone.
// It is the fallback used when the LLM advisor is unconfigured or fails.
func RuleBasedGuidance(items []LoadItem, info RouteInfo) *LoadGuidance {
	var totalWeight float64
	var specialCare, heavy []string
	for _, it := range items {
		totalWeight += it.WeightKg
		for _, p := range it.Products {
			name := strings.ToLower(p.Name)
			lineWeight := p.WeightKg * float64(p.Quantity)
			switch {
			case containsAny(name, electronicsWords):
				specialCare = append(specialCare, fmt.Sprintf("%s for %s - protect from impacts and moisture", p.Name, it.Customer))
			case containsAny(name, fragileWords):
				specialCare = append(specialCare, fmt.Sprintf("%s for %s - fragile, handle with care", p.Name, it.Customer))
			case lineWeight > heavyThresholdKg:
				heavy = append(heavy, fmt.Sprintf("%s for %s (%.1f kg)", p.Name, it.Customer, lineWeight))
			}
		}
	}

	// Loading happens in load-position order: deepest cargo first.
	ordered := append([]LoadItem(nil), items...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].LoadPosition < ordered[j].LoadPosition })

	steps := make([]LoadingStep, 0, len(ordered))
	for i, it := range ordered {
		names := make([]string, 0, len(it.Products))
		for _, p := range it.Products {
			names = append(names, p.Name)
		}
		placement := "middle of the cargo area"
		switch {
		case i == 0:
			placement = "deepest in the vehicle"
		case i == len(ordered)-1:
			placement = "closest to the door"
		}
		steps = append(steps, LoadingStep{
			Number:    i + 1,
			Action:    fmt.Sprintf("Load %s for %s", strings.Join(names, ", "), it.Customer),
			Reason:    fmt.Sprintf("Delivered at stop %d, so it goes in at load position %d", it.DeliveryPosition, it.LoadPosition),
			Placement: placement,
		})
	}

	recs := []Recommendation{
		{
			Title:       "Load in reverse delivery order",
			Description: "The last thing you load is the first thing you deliver. Start with the cargo for the final stop.",
			Priority:    "high",
			Category:    "order",
		},
		{
			Title:       "Heavy low, light on top",
			Description: "Put heavy boxes on the vehicle floor and light ones above them so nothing gets crushed.",
			Priority:    "high",
			Category:    "safety",
		},
	}
	if len(specialCare) > 0 {
		recs = append(recs, Recommendation{
			Title:       "Watch the delicate items",
			Description: "Some products need special care. Place them where they cannot be knocked around.",
			Priority:    "high",
			Category:    "care",
		})
	}
	if len(heavy) > 0 {
		recs = append(recs, Recommendation{
			Title:       "Heavy items in the center",
			Description: "Keep the heavy products centered in the vehicle for better balance.",
			Priority:    "medium",
			Category:    "safety",
		})
	}
	recs = append(recs, Recommendation{
		Title:       "Secure the cargo",
		Description: "Use straps so nothing shifts while driving.",
		Priority:    "medium",
		Category:    "safety",
	})
	if len(recs) > 5 {
		recs = recs[:5]
	}

	if len(specialCare) == 0 {
		specialCare = []string{"No products require special care"}
	}

	return &LoadGuidance{
		Summary: fmt.Sprintf(
			"You have %d deliveries totaling %.2f kg. Remember: the last thing you load is the first thing you deliver.",
			info.StopCount, totalWeight),
		LoadingSteps: steps,
		WeightDistribution: "Place the heaviest products low and centered, lighter ones on top. " +
			"Spread the weight evenly between left and right.",
		SpecialCareItems: specialCare,
		Recommendations:  recs,
		Checklist: []string{
			"All products are loaded and secured",
			"You have the address for every delivery",
			"Your phone is charged and has signal",
			"The vehicle has enough fuel",
			"Nothing from the manifest is missing",
		},
		DeliveryTips: []string{
			"Call the customer before arriving",
			"Park somewhere safe at each stop",
			"Check the customer name before handing over",
			"Get a signature or photo as proof of delivery",
		},
		EstimatedLoadTime: "15-20 minutes",
		Difficulty:        "normal",
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

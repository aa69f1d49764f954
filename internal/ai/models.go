package ai

// LoadItem is one stop's share of the loading plan, as presented to the
// advisor. LoadPosition 1 is loaded first (delivered last).
type LoadItem struct {
	LoadPosition     int
	DeliveryPosition int
	Customer         string
	WeightKg         float64
	VolumeM3         float64
	Products         []ProductLine
}

type ProductLine struct {
	Name     string
	Quantity int
	WeightKg float64
}

// RouteInfo summarizes the solved route for the advisor prompt.
type RouteInfo struct {
	DistanceKm      float64
	DurationMinutes int
	StopCount       int
}

// LoadingStep is one concrete action in the vehicle-loading sequence.
type LoadingStep struct {
	Number    int    `json:"number"`
	Action    string `json:"action"`
	Reason    string `json:"reason"`
	Placement string `json:"placement"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // high, medium, low
	Category    string `json:"category"` // safety, order, care, time
}

// LoadGuidance is the structured output handed to drivers before departure.
type LoadGuidance struct {
	Summary            string           `json:"summary"`
	LoadingSteps       []LoadingStep    `json:"loading_steps"`
	WeightDistribution string           `json:"weight_distribution"`
	SpecialCareItems   []string         `json:"special_care_items"`
	Recommendations    []Recommendation `json:"recommendations"`
	Checklist          []string         `json:"checklist"`
	DeliveryTips       []string         `json:"delivery_tips"`
	EstimatedLoadTime  string           `json:"estimated_load_time"`
	Difficulty         string           `json:"difficulty"` // easy, normal, hard
}

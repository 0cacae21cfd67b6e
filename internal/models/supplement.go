package models

// SupplementItem is one product card from the supplement search.
type SupplementItem struct {
	Href    string `json:"href"`
	Brand   string `json:"brand"`
	Name    string `json:"name"`
	Rating  string `json:"rating"`
	Reviews string `json:"reviews"`
	Dose    string `json:"dose"`
	Image   string `json:"image"`
}

// SupplementSearchResponse is the body of GET /api/pillyze/search.
type SupplementSearchResponse struct {
	Query  string           `json:"query"`
	Cached bool             `json:"cached,omitempty"`
	Items  []SupplementItem `json:"items"`
	Count  int              `json:"count"`
}

// BackendHealth is the body of GET /api/health.
type BackendHealth struct {
	Status string         `json:"status"`
	Models map[string]any `json:"models,omitempty"`
}

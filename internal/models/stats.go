package models

// Stats aggregates click counts over all links.
type Stats struct {
	TotalURLs     int     `json:"totalUrls"`
	TotalClicks   int64   `json:"totalClicks"`
	AverageClicks float64 `json:"averageClicks"`
}

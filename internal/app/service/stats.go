package service

import (
	"context"
	"math"

	"github.com/atinyakov/clickshort/internal/models"
	"github.com/atinyakov/clickshort/internal/storage"
)

// Aggregate computes link statistics. AverageClicks is rounded to two
// decimals and is zero for an empty slice.
func Aggregate(links []storage.Link) models.Stats {
	st := models.Stats{TotalURLs: len(links)}
	for _, l := range links {
		st.TotalClicks += l.Clicks
	}

	if st.TotalURLs > 0 {
		avg := float64(st.TotalClicks) / float64(st.TotalURLs)
		st.AverageClicks = math.Round(avg*100) / 100
	}

	return st
}

func (s *URLService) Summarize(ctx context.Context) (*models.Stats, error) {
	links, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	st := Aggregate(links)
	return &st, nil
}

// Overview returns every link, newest first, with statistics computed over
// that same listing.
func (s *URLService) Overview(ctx context.Context) (*models.AdminURLsResponse, error) {
	links, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AdminURLsResponse{
		URLs:  links,
		Stats: Aggregate(links),
	}, nil
}

// Package analysis summarizes customer feedback into agent ratings.
package analysis

import (
	"math"

	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/models"
)

// Summary aggregates the ratings an agent received.
type Summary struct {
	AgentID      string      `json:"agentId"`
	Count        int         `json:"count"`
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
}

// GetLabel returns the display label for a rating.
// It returns an empty string if the rating is out of range.
func GetLabel(rating int) string {
	return config.RatingLabels[rating]
}

// Summarize computes count, average (two decimals) and per-rating distribution.
// Ratings outside the accepted range are ignored.
func Summarize(agentID string, feedback []models.Feedback) Summary {
	s := Summary{AgentID: agentID, Distribution: make(map[int]int, config.MaxRating)}
	for r := config.MinRating; r <= config.MaxRating; r++ {
		s.Distribution[r] = 0
	}

	total := 0
	for _, f := range feedback {
		if f.Rating < config.MinRating || f.Rating > config.MaxRating {
			continue
		}
		s.Count++
		s.Distribution[f.Rating]++
		total += f.Rating
	}
	if s.Count > 0 {
		s.Average = math.Round(float64(total)/float64(s.Count)*100) / 100
	}
	return s
}

// GroupByAgent splits feedback by agent. Feedback without an agent is dropped.
func GroupByAgent(feedback []models.Feedback) map[string][]models.Feedback {
	out := make(map[string][]models.Feedback)
	for _, f := range feedback {
		if f.AgentID == nil {
			continue
		}
		out[*f.AgentID] = append(out[*f.AgentID], f)
	}
	return out
}

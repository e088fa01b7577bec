package analysis

import (
	"testing"

	"resolvenow/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	fb := []models.Feedback{{Rating: 5}, {Rating: 4}, {Rating: 4}, {Rating: 9}}

	s := Summarize("a1", fb)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 4.33, s.Average)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, s.Distribution)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("a1", nil)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.Average)
	assert.Len(t, s.Distribution, 5)
}

func TestGroupByAgent(t *testing.T) {
	a1, a2 := "a1", "a2"
	groups := GroupByAgent([]models.Feedback{{AgentID: &a1}, {AgentID: &a2}, {AgentID: &a1}, {}})

	assert.Len(t, groups["a1"], 2)
	assert.Len(t, groups["a2"], 1)
	assert.Len(t, groups, 2)
}

func TestGetLabel(t *testing.T) {
	assert.Equal(t, "Excellent", GetLabel(5))
	assert.Empty(t, GetLabel(0))
}

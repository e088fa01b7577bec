package report_test

import (
	"bytes"
	"context"
	"testing"

	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/report"
	"resolvenow/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func TestWriteFeedbackReport(t *testing.T) {
	fb := []models.Feedback{
		{ComplaintID: "c1", UserID: "u1", AgentID: strPtr("a1"), Rating: 5, Comment: "quick"},
		{ComplaintID: "c2", UserID: "u2", AgentID: strPtr("a1"), Rating: 4},
		{ComplaintID: "c3", UserID: "u3", Rating: 2, User: &models.User{Name: "Asha"}},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteFeedbackReport(&buf, fb, map[string]string{"a1": "Ravi"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SummarySheet, report.FeedbackSheet}, f.GetSheetList())

	rows, err := f.GetRows(report.SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "5 - Excellent", rows[0][8])
	assert.Equal(t, []string{"Ravi", "a1", "2", "4.5", "0", "0", "0", "1", "1"}, rows[1])

	rows, err = f.GetRows(report.FeedbackSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Ravi", rows[1][2])
	assert.Equal(t, "Excellent", rows[1][4])
	assert.Equal(t, "Asha", rows[3][1])
	assert.Equal(t, "", rows[3][2])
}

func TestExport_FromStorage(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	cust := storagetest.SeedUser(t, s, "asha", models.RoleCustomer)
	agent := storagetest.SeedUser(t, s, "ravi", models.RoleAgent)
	c := storagetest.SeedComplaint(t, s, cust.ID)
	require.NoError(t, s.CreateFeedback(ctx, &models.Feedback{
		ComplaintID: c.ID, UserID: cust.ID, AgentID: &agent.ID, Rating: 3,
	}))

	var buf bytes.Buffer
	require.NoError(t, report.Export(ctx, s, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ravi", rows[1][0])
	assert.Equal(t, "3", rows[1][3])

	rows, err = f.GetRows(report.FeedbackSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "asha", rows[1][1])
	assert.Equal(t, "Average", rows[1][4])
}

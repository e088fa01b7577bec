// Package report exports customer feedback and agent ratings as an Excel workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"resolvenow/backend/internal/analysis"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet  = "Agent Ratings"
	FeedbackSheet = "Feedback"
)

var summaryHeader = []string{"Agent", "Agent ID", "Ratings", "Average"}

var feedbackHeader = []string{"Complaint ID", "Customer", "Agent", "Rating", "Label", "Comment", "Submitted"}

// Source is the read access the export needs.
type Source interface {
	ListFeedback(ctx context.Context, agentID string) ([]models.Feedback, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

// Export loads all feedback and agents from src and writes the workbook to w.
func Export(ctx context.Context, src Source, w io.Writer) error {
	fb, err := src.ListFeedback(ctx, "")
	if err != nil {
		return fmt.Errorf("list feedback: %w", err)
	}
	agents, err := src.ListUsers(ctx, models.RoleAgent)
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}
	names := make(map[string]string, len(agents))
	for _, a := range agents {
		names[a.ID] = a.Name
	}
	return WriteFeedbackReport(w, fb, names)
}

// WriteFeedbackReport writes one summary row per agent and one detail row per feedback.
// agentNames maps agent IDs to display names; unknown agents are shown by ID.
func WriteFeedbackReport(w io.Writer, feedback []models.Feedback, agentNames map[string]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SummarySheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(FeedbackSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := append([]string{}, summaryHeader...)
	for r := config.MinRating; r <= config.MaxRating; r++ {
		header = append(header, fmt.Sprintf("%d - %s", r, analysis.GetLabel(r)))
	}
	if err := writeHeader(f, SummarySheet, header, headerStyle); err != nil {
		return err
	}
	if err := writeHeader(f, FeedbackSheet, feedbackHeader, headerStyle); err != nil {
		return err
	}

	name := func(id string) string {
		if n, ok := agentNames[id]; ok && n != "" {
			return n
		}
		return id
	}

	grouped := analysis.GroupByAgent(feedback)
	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return name(ids[i]) < name(ids[j]) })

	for i, id := range ids {
		s := analysis.Summarize(id, grouped[id])
		row := []interface{}{name(id), id, s.Count, s.Average}
		for r := config.MinRating; r <= config.MaxRating; r++ {
			row = append(row, s.Distribution[r])
		}
		if err := writeRow(f, SummarySheet, i+2, row); err != nil {
			return err
		}
	}

	for i, fb := range feedback {
		customer := fb.UserID
		if fb.User != nil {
			customer = fb.User.Name
		}
		agent := ""
		if fb.AgentID != nil {
			agent = name(*fb.AgentID)
		}
		row := []interface{}{
			fb.ComplaintID, customer, agent, fb.Rating, analysis.GetLabel(fb.Rating),
			fb.Comment, fb.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writeRow(f, FeedbackSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "B", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(FeedbackSheet, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(FeedbackSheet, "B", "C", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(FeedbackSheet, "F", "F", 50); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

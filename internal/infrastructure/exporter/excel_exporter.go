package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

type excelExporter struct{}

// NewExcelExporter creates an Excel transcript exporter.
func NewExcelExporter() repository.TranscriptExporter {
	return &excelExporter{}
}

// ExportTranscript writes the conversation's turns to an .xlsx file, one
// row per turn in append order.
func (e *excelExporter) ExportTranscript(conversation *entity.Conversation, path string) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transcript"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := map[string]string{
		"A1": "#",
		"B1": "Sender",
		"C1": "Text",
		"D1": "Conversation",
		"E1": "Created",
	}
	for cell, value := range headers {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, turn := range conversation.Messages {
		row := i + 2
		values := []struct {
			col   string
			value any
		}{
			{"A", i + 1},
			{"B", string(turn.Sender)},
			{"C", turn.Text},
			{"D", conversation.ID},
			{"E", conversation.CreatedAt.Format("2006-01-02 15:04:05")},
		}
		for _, v := range values {
			cell := fmt.Sprintf("%s%d", v.col, row)
			if err := f.SetCellValue(sheet, cell, v.value); err != nil {
				return 0, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("failed to save transcript: %w", err)
	}
	return len(conversation.Messages), nil
}

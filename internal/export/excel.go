package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"aicruiter/internal/models"
)

const (
	interviewsSheet = "Interviews"
	questionsSheet  = "Questions"
	dateLayout      = "2006-01-02 15:04"
)

var interviewHeaders = []string{"Role", "Duration (min)", "Types", "Questions", "Rating", "Created", "Scheduled", "Link"}

// WriteInterviews renders a recruiter's postings as a two-sheet workbook: one row
// per posting, then every question with its posting's role.
func WriteInterviews(w io.Writer, interviews []models.Interview, siteURL string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", interviewsSheet)
	if _, err := f.NewSheet(questionsSheet); err != nil {
		return fmt.Errorf("failed to create questions sheet: %w", err)
	}

	if err := writeInterviewsSheet(f, interviews, siteURL); err != nil {
		return fmt.Errorf("failed to create interviews sheet: %w", err)
	}
	if err := writeQuestionsSheet(f, interviews); err != nil {
		return fmt.Errorf("failed to fill questions sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func writeInterviewsSheet(f *excelize.File, interviews []models.Interview, siteURL string) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := writeHeaders(f, interviewsSheet, interviewHeaders, style); err != nil {
		return err
	}
	f.SetColWidth(interviewsSheet, "A", "A", 30)
	f.SetColWidth(interviewsSheet, "C", "C", 25)
	f.SetColWidth(interviewsSheet, "F", "G", 18)
	f.SetColWidth(interviewsSheet, "H", "H", 50)

	for i, interview := range interviews {
		row := i + 2
		f.SetCellValue(interviewsSheet, fmt.Sprintf("A%d", row), interview.Role)
		f.SetCellValue(interviewsSheet, fmt.Sprintf("B%d", row), interview.DurationMinutes)
		f.SetCellValue(interviewsSheet, fmt.Sprintf("C%d", row), strings.Join(interview.TypeTags, ", "))
		f.SetCellValue(interviewsSheet, fmt.Sprintf("D%d", row), len(interview.Questions))
		if interview.Rating != nil {
			f.SetCellValue(interviewsSheet, fmt.Sprintf("E%d", row), *interview.Rating)
		}
		if !interview.CreatedAt.IsZero() {
			f.SetCellValue(interviewsSheet, fmt.Sprintf("F%d", row), interview.CreatedAt.UTC().Format(dateLayout))
		}
		if interview.ScheduledAt != nil {
			f.SetCellValue(interviewsSheet, fmt.Sprintf("G%d", row), interview.ScheduledAt.UTC().Format(dateLayout))
		}
		f.SetCellValue(interviewsSheet, fmt.Sprintf("H%d", row), InterviewLink(siteURL, interview.ID))
	}
	return nil
}

func writeQuestionsSheet(f *excelize.File, interviews []models.Interview) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := writeHeaders(f, questionsSheet, []string{"Role", "#", "Question"}, style); err != nil {
		return err
	}
	f.SetColWidth(questionsSheet, "A", "A", 30)
	f.SetColWidth(questionsSheet, "C", "C", 80)

	row := 2
	for _, interview := range interviews {
		for n, question := range interview.Questions {
			f.SetCellValue(questionsSheet, fmt.Sprintf("A%d", row), interview.Role)
			f.SetCellValue(questionsSheet, fmt.Sprintf("B%d", row), n+1)
			f.SetCellValue(questionsSheet, fmt.Sprintf("C%d", row), question)
			row++
		}
	}
	return nil
}

// InterviewLink is the candidate-facing URL for a posting.
func InterviewLink(siteURL, id string) string {
	return strings.TrimRight(siteURL, "/") + "/interview/" + id
}

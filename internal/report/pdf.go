// Package report renders the finalize payloads into downloadable PDF
// reports and browsable HTML views.
package report

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/face2phrase/backend/internal/stores/session"
)

// Builder renders interview reports. The zero value is ready to use.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// BuildFeedbackPDF writes the per-question feedback report into the
// session directory
func (b *Builder) BuildFeedbackPDF(dir session.Dir, feedback *session.FeedbackBundle) error {
	pdf := newDocument("Interview Feedback Report")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	writeCandidateBlock(pdf, tr, feedback.Candidate)

	for i, qf := range feedback.QuestionFeedbacks {
		sectionTitle(pdf, tr, fmt.Sprintf("Question %d", i+1))

		paragraph(pdf, tr, qf.Question)
		labeled(pdf, tr, "Your answer", qf.UserAnswer)
		writeRatingsTable(pdf, tr, qf.Ratings)
		labeled(pdf, tr, "Feedback", qf.Feedback)
		pdf.Ln(4)
	}

	sectionTitle(pdf, tr, "Overall Summary")
	paragraph(pdf, tr, feedback.OverallSummary)

	sectionTitle(pdf, tr, "Recommendations")
	for i, rec := range feedback.Recommendations {
		paragraph(pdf, tr, fmt.Sprintf("%d. %s", i+1, rec))
	}

	if err := pdf.OutputFileAndClose(dir.FeedbackPDFPath()); err != nil {
		return fmt.Errorf("failed to write feedback report: %w", err)
	}
	return nil
}

// BuildAnswersPDF writes the expected-answers study guide into the
// session directory
func (b *Builder) BuildAnswersPDF(dir session.Dir, key *session.AnswerKey) error {
	pdf := newDocument("Expected Answers Guide")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	writeCandidateBlock(pdf, tr, key.Candidate)

	for i, ea := range key.ExpectedAnswers {
		sectionTitle(pdf, tr, fmt.Sprintf("Question %d", i+1))

		paragraph(pdf, tr, ea.Question)
		labeled(pdf, tr, "Ideal answer", ea.ExpectedAnswer)
		if len(ea.KeyPoints) > 0 {
			labeled(pdf, tr, "Key points", "")
			for _, kp := range ea.KeyPoints {
				paragraph(pdf, tr, "- "+kp)
			}
		}
		pdf.Ln(4)
	}

	if err := pdf.OutputFileAndClose(dir.AnswersPDFPath()); err != nil {
		return fmt.Errorf("failed to write answers report: %w", err)
	}
	return nil
}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)
	return pdf
}

func writeCandidateBlock(pdf *fpdf.Fpdf, tr func(string) string, c session.Candidate) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetFillColor(240, 240, 240)

	lines := []string{
		fmt.Sprintf("Candidate: %s (%s)", c.Name, c.Email),
		fmt.Sprintf("Position: %s", c.Position),
		fmt.Sprintf("Experience: %s", c.Experience),
	}
	pdf.MultiCell(0, 6, tr(strings.Join(lines, "\n")), "", "L", true)
	pdf.Ln(4)
}

func sectionTitle(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
}

func labeled(pdf *fpdf.Fpdf, tr func(string) string, label, text string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, tr(label+":"), "", 1, "L", false, 0, "")
	if text != "" {
		paragraph(pdf, tr, text)
	}
}

func paragraph(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(text), "", "L", false)
	pdf.Ln(1)
}

func writeRatingsTable(pdf *fpdf.Fpdf, tr func(string) string, r session.Ratings) {
	rows := []struct {
		aspect string
		score  int
	}{
		{"Relevance", r.Relevance},
		{"Clarity", r.Clarity},
		{"Depth", r.Depth},
		{"Confidence", r.Confidence},
		{"Overall", r.Overall},
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 7, "Aspect", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Score", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(60, 7, tr(row.aspect), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d/10", row.score), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
}

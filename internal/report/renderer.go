package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/neurowell/support-ai-platform/pkg/logging"
)

const (
	reportTitle    = "NeuroWell Chat Report"
	watermarkText  = "NeuroWell"
	footerBrand    = "NeuroWell Pvt. Ltd. • Made by Tejash Tarun"
	footerNotice   = "This is a summary report generated for counselor reference only."
	summaryLineGap = 15.0
	bottomLimit    = 692.0
	continueTop    = 80.0
)

// RenderedDocument is a finished PDF plus the timestamped name used when a
// copy is written locally.
type RenderedDocument struct {
	Bytes     []byte
	LocalName string
}

// Renderer produces the counselor PDF from a draft. Layout is fixed US
// letter in points; the only variable-height region is the summary body,
// which paginates mid-text when it outruns the page.
type Renderer struct {
	logger *logging.Logger
}

func NewRenderer(logger *logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Renderer{logger: logger}
}

// Render lays out the draft. A draft whose summary carries the failure
// marker is rejected before any drawing happens; a half-true report is
// worse than none.
func (r *Renderer) Render(draft *Draft) (*RenderedDocument, error) {
	if draft == nil {
		return nil, fmt.Errorf("report: draft cannot be nil")
	}
	if draft.SummaryFailed() {
		return nil, fmt.Errorf("report: summary generation failed, refusing to render")
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	// Pin document metadata to the draft timestamp so identical drafts
	// produce byte-identical output.
	pdf.SetCreationDate(draft.GeneratedAt)
	pdf.SetModificationDate(draft.GeneratedAt)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	width, height := pdf.GetPageSize()

	// Watermark goes on the first page only, under the content.
	r.stampWatermark(pdf, width, height)

	// Title, centered.
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(0, 0, 139)
	pdf.Text((width-pdf.GetStringWidth(reportTitle))/2, 60, reportTitle)

	// Generation timestamp, right-aligned.
	ts := "Generated on: " + draft.GeneratedAt.Format("2006-01-02 15:04")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(width-50-pdf.GetStringWidth(ts), 75, ts)

	// User information block.
	y := 110.0
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(60, y, "User Information:")
	pdf.SetFont("Helvetica", "", 12)
	y += 20
	pdf.Text(90, y, fmt.Sprintf("• User ID: %s", draft.UserID))
	y += 18
	pdf.Text(90, y, fmt.Sprintf("• Name: %s", draft.Name))
	y += 18
	pdf.Text(90, y, fmt.Sprintf("• Age: %s", draft.Age))
	y += 18
	pdf.Text(90, y, fmt.Sprintf("• Primary Concern: %s", draft.PrimaryConcern))

	// Separator.
	y += 15
	pdf.SetDrawColor(128, 128, 128)
	pdf.Line(60, y, width-60, y)

	// Session summary heading.
	y += 30
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(139, 0, 0)
	pdf.Text(60, y, "Session Summary:")

	// Summary body in a fixed-width face so the wrap width is a pure
	// function of the page geometry.
	pdf.SetFont("Courier", "", 10)
	pdf.SetTextColor(0, 0, 0)
	y += 20

	usable := width - 180
	charWidth := pdf.GetStringWidth("M")
	maxChars := int(usable / charWidth)

	for _, line := range wrapSummary(draft.Summary, maxChars) {
		if y > bottomLimit {
			r.drawFooter(pdf, width)
			pdf.AddPage()
			pdf.SetFont("Courier", "", 10)
			pdf.SetTextColor(0, 0, 0)
			y = continueTop
		}
		pdf.Text(90, y, line)
		y += summaryLineGap
	}

	r.drawFooter(pdf, width)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}

	r.logger.Info("report rendered",
		"user_id", draft.UserID,
		"pages", pdf.PageCount(),
		"bytes", buf.Len(),
	)

	return &RenderedDocument{
		Bytes:     buf.Bytes(),
		LocalName: fmt.Sprintf("Chat_Report_%s_%s.pdf", draft.UserID, draft.GeneratedAt.Format("20060102_150405")),
	}, nil
}

// drawFooter stamps the brand line and confidentiality notice at the foot
// of the current page. Every page gets one.
func (r *Renderer) drawFooter(pdf *fpdf.Fpdf, width float64) {
	pdf.SetDrawColor(128, 128, 128)
	pdf.Line(60, 722, width-60, 722)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(105, 105, 105)
	pdf.Text((width-pdf.GetStringWidth(footerBrand))/2, 732, footerBrand)
	pdf.Text((width-pdf.GetStringWidth(footerNotice))/2, 747, footerNotice)
}

// stampWatermark draws the brand diagonally across the page center.
func (r *Renderer) stampWatermark(pdf *fpdf.Fpdf, width, height float64) {
	pdf.TransformBegin()
	pdf.TransformRotate(45, width/2, height/2)
	pdf.SetFont("Helvetica", "B", 45)
	pdf.SetTextColor(211, 211, 211)
	pdf.Text(width/2-pdf.GetStringWidth(watermarkText)/2, height/2, watermarkText)
	pdf.TransformEnd()
}

// wrapSummary breaks the summary into lines of at most maxChars runes,
// respecting paragraph breaks and hard-splitting words that exceed the
// line width on their own.
func wrapSummary(text string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			for len([]rune(word)) > maxChars {
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				runes := []rune(word)
				lines = append(lines, string(runes[:maxChars]))
				word = string(runes[maxChars:])
			}
			switch {
			case current == "":
				current = word
			case len([]rune(current))+1+len([]rune(word)) <= maxChars:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

package writers

import (
	"fmt"
	"io"
	"sync"

	gofpdf "github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/segmatrix/segmatrix/internal/hexutil"
	"github.com/segmatrix/segmatrix/pkg/output/dispatcher"
	"github.com/segmatrix/segmatrix/pkg/output/events"
	"github.com/segmatrix/segmatrix/pkg/report"
	"github.com/segmatrix/segmatrix/pkg/segment"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*PDFWriter)(nil)

// PDFConfig configures the PDF report writer.
type PDFConfig struct {
	// Title is the report title. Empty falls back to the branding
	// title, then to "Network Segmentation Matrix".
	Title string

	// CompanyName appears on the cover page. Empty falls back to the
	// branding organization.
	CompanyName string

	// Author is stored in the PDF metadata.
	Author string

	// PageSize sets the page format: "A4" or "Letter" (default "A4").
	PageSize string

	// Orientation sets "P" portrait or "L" landscape (default "P").
	Orientation string

	// Report carries palette and section toggles; nil uses defaults.
	Report *report.TemplateConfig
}

// PDFWriter writes the matrix as an engagement-deliverable PDF.
// It buffers all events and renders the document on Close.
// The writer is safe for concurrent use.
type PDFWriter struct {
	w      io.Writer
	mu     sync.Mutex
	config PDFConfig
	report *report.TemplateConfig

	// noCompress disables content stream compression so tests can
	// grep rendered text in the raw bytes.
	noCompress bool

	segments []*events.SegmentEvent
	hosts    []*events.HostEvent
	matrix   *events.MatrixEvent
}

// NewPDFWriter creates a new PDF report writer.
// The writer buffers all events and writes the document on Close.
func NewPDFWriter(w io.Writer, config PDFConfig) *PDFWriter {
	rep := config.Report
	if rep == nil {
		rep = report.DefaultTemplateConfig()
	}
	if config.Title == "" {
		config.Title = rep.Branding.Title
	}
	if config.Title == "" {
		config.Title = "Network Segmentation Matrix"
	}
	if config.CompanyName == "" {
		config.CompanyName = rep.Branding.Organization
	}
	if config.PageSize == "" {
		config.PageSize = "A4"
	}
	if config.Orientation == "" {
		config.Orientation = "P"
	}
	return &PDFWriter{
		w:      w,
		config: config,
		report: rep,
	}
}

// Write buffers an event for later PDF output.
func (pw *PDFWriter) Write(event events.Event) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	switch e := event.(type) {
	case *events.SegmentEvent:
		pw.segments = append(pw.segments, e)
	case *events.HostEvent:
		pw.hosts = append(pw.hosts, e)
	case *events.MatrixEvent:
		pw.matrix = e
	}
	return nil
}

// Flush is a no-op for PDF writer.
// The document is rendered once on Close.
func (pw *PDFWriter) Flush() error {
	return nil
}

// Close renders the PDF and writes it out.
// If the underlying writer implements io.Closer, it will be closed.
func (pw *PDFWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pdf := gofpdf.New(pw.config.Orientation, "mm", pw.config.PageSize, "")
	pdf.SetTitle(pw.config.Title, true)
	if pw.config.Author != "" {
		pdf.SetAuthor(pw.config.Author, true)
	}
	pdf.SetCreator("segmatrix", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	if pw.noCompress {
		pdf.SetCompression(false)
	}

	pw.addCoverPage(pdf)
	pw.addMatrixPage(pdf)
	pw.addConcernsPage(pdf)

	if err := pdf.Output(pw.w); err != nil {
		return fmt.Errorf("pdf: output: %w", err)
	}

	if closer, ok := pw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for segment, host, and matrix events.
func (pw *PDFWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeSegment, events.EventTypeHost, events.EventTypeMatrix:
		return true
	default:
		return false
	}
}

// pdfFill parses a palette color, falling back when the value is not
// a valid hex color.
func pdfFill(hex string, fallback [3]int) (int, int, int) {
	r, g, b, err := hexutil.ParseColor(hex)
	if err != nil {
		return fallback[0], fallback[1], fallback[2]
	}
	return r, g, b
}

// tierFill returns the cell fill color for a host tier.
func (pw *PDFWriter) tierFill(t events.Tier) (int, int, int) {
	switch t {
	case events.TierCritical:
		return pdfFill(pw.report.Palette.CriticalCell, [3]int{255, 204, 204})
	case events.TierElevated:
		return pdfFill(pw.report.Palette.ElevatedCell, [3]int{255, 255, 153})
	default:
		return pdfFill(pw.report.Palette.NormalCell, [3]int{204, 255, 204})
	}
}

func (pw *PDFWriter) segmentNames(t segment.Type) []string {
	var names []string
	for _, s := range pw.segments {
		if s.Segment.Type == t {
			names = append(names, s.Segment.Name)
		}
	}
	return names
}

// addSectionHeader renders a section title with an accent underline.
func (pw *PDFWriter) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 15)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")

	y := pdf.GetY()
	pdf.SetDrawColor(0, 180, 216)
	pdf.SetLineWidth(0.6)
	pdf.Line(15, y, 75, y)
	pdf.Ln(5)
}

// addCoverPage renders the title block, run metadata, summary table,
// and segment classification.
func (pw *PDFWriter) addCoverPage(pdf *gofpdf.Fpdf) {
	pdf.AddPage()

	pdf.Ln(20)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(30, 41, 59)
	pdf.MultiCell(0, 12, pw.config.Title, "", "C", false)

	if pw.config.CompanyName != "" {
		pdf.SetFont("Helvetica", "", 13)
		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, 8, "Prepared for "+pw.config.CompanyName, "", 1, "C", false, 0, "")
	}

	if m := pw.matrix; m != nil {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(120, 120, 120)
		generated := m.Timing.CompletedAt.Format("2006-01-02 15:04 MST")
		pdf.CellFormat(0, 6, "Generated "+generated, "", 1, "C", false, 0, "")
		if m.Fingerprint != "" {
			pdf.CellFormat(0, 6, "Run "+m.Fingerprint, "", 1, "C", false, 0, "")
		}
	}

	pdf.Ln(12)
	pw.addSummaryTable(pdf)
	pdf.Ln(8)
	pw.addClassification(pdf)
}

func (pw *PDFWriter) addSummaryTable(pdf *gofpdf.Fpdf) {
	if pw.matrix == nil {
		return
	}
	t := pw.matrix.Totals

	pw.addSectionHeader(pdf, "Summary")

	rows := [][2]string{
		{"Directory", pw.matrix.Directory},
		{"Segments", fmt.Sprintf("%d  (%d PCI, %d non-PCI, %d unknown)",
			t.Segments, t.PCISegments, t.NonPCISegments, t.UnknownSegments)},
		{"Hosts", fmt.Sprintf("%d  (%d normal, %d elevated)",
			t.Hosts, t.NormalHosts, t.ElevatedHosts)},
		{"Critical Hosts", fmt.Sprintf("%d", t.CriticalHosts)},
		{"Duration", fmt.Sprintf("%.2fs", pw.matrix.Timing.DurationSec)},
	}

	// Table header.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(50, 8, "Metric", "1", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, "Value", "1", 1, "L", true, 0, "")

	// Rows.
	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(248, 250, 252)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(50, 7, row[0], "1", 0, "L", true, 0, "")

		// Critical host count in red when anything crossed the
		// boundary.
		if row[0] == "Critical Hosts" && t.CriticalHosts > 0 {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(178, 0, 0)
		}
		pdf.CellFormat(0, 7, row[1], "1", 1, "L", true, 0, "")
	}
}

func (pw *PDFWriter) addClassification(pdf *gofpdf.Fpdf) {
	pw.addSectionHeader(pdf, "Segment Classification")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 128, 0)
	pdf.CellFormat(42, 6, "PCI Segments:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.MultiCell(0, 6, joinOrNone(pw.segmentNames(segment.PCI)), "", "L", false)
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(217, 119, 6)
	pdf.CellFormat(42, 6, "NON PCI Segments:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.MultiCell(0, 6, joinOrNone(pw.segmentNames(segment.NonPCI)), "", "L", false)
}

// addMatrixPage renders the communication grid. Long host lists
// paginate with the header row repeated on each page.
func (pw *PDFWriter) addMatrixPage(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Communication Matrix")

	if len(pw.segments) == 0 || len(pw.hosts) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, "No matrix data loaded.", "", 1, "L", false, 0, "")
		return
	}

	pageW, pageH := pdf.GetPageSize()
	hostW := 40.0
	cellW := (pageW - 30 - hostW) / float64(len(pw.segments))
	if cellW > 35 {
		cellW = 35
	}

	pw.drawMatrixHeader(pdf, hostW, cellW)

	for _, h := range pw.hosts {
		// Repeat the header when a row would land in the bottom
		// margin.
		if pdf.GetY() > pageH-30 {
			pdf.AddPage()
			pw.drawMatrixHeader(pdf, hostW, cellW)
		}

		reaching := make(map[string]bool, len(h.Host.Segments))
		for _, name := range h.Host.Segments {
			reaching[name] = true
		}

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(hostW, 7, h.Host.Address, "1", 0, "L", false, 0, "")

		fr, fg, fb := pw.tierFill(h.Host.Tier)
		for _, s := range pw.segments {
			if reaching[s.Segment.Name] {
				pdf.SetFillColor(fr, fg, fb)
				pdf.SetFont("Helvetica", "B", 9)
				pdf.SetTextColor(30, 41, 59)
				pdf.CellFormat(cellW, 7, "X", "1", 0, "C", true, 0, "")
			} else {
				pdf.SetFont("Helvetica", "", 9)
				pdf.SetTextColor(180, 180, 180)
				pdf.CellFormat(cellW, 7, "-", "1", 0, "C", false, 0, "")
			}
		}
		pdf.Ln(-1)
	}

	if pw.report.Sections.Legend {
		pdf.Ln(4)
		pw.addLegend(pdf)
	}
}

// drawMatrixHeader renders the grid header row with segment columns
// filled by zone.
func (pw *PDFWriter) drawMatrixHeader(pdf *gofpdf.Fpdf, hostW, cellW float64) {
	titleCase := cases.Title(language.English)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(hostW, 8, "Host", "1", 0, "L", true, 0, "")

	for _, s := range pw.segments {
		switch s.Segment.Type {
		case segment.PCI:
			r, g, b := pdfFill(pw.report.Palette.PCIHeaderBackground, [3]int{179, 209, 255})
			pdf.SetFillColor(r, g, b)
			r, g, b = pdfFill(pw.report.Palette.PCIHeaderText, [3]int{0, 51, 102})
			pdf.SetTextColor(r, g, b)
		case segment.NonPCI:
			r, g, b := pdfFill(pw.report.Palette.NonPCIHeaderBackground, [3]int{255, 242, 204})
			pdf.SetFillColor(r, g, b)
			r, g, b = pdfFill(pw.report.Palette.NonPCIHeaderText, [3]int{127, 96, 0})
			pdf.SetTextColor(r, g, b)
		default:
			pdf.SetFillColor(30, 41, 59)
			pdf.SetTextColor(255, 255, 255)
		}
		pdf.CellFormat(cellW, 8, titleCase.String(s.Segment.Name), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

// addLegend renders the tier swatch key under the grid.
func (pw *PDFWriter) addLegend(pdf *gofpdf.Fpdf) {
	titleCase := cases.Title(language.English)
	entries := []struct {
		tier events.Tier
		text string
	}{
		{events.TierNormal, "host is reachable from this segment only"},
		{events.TierElevated, "host is reachable from multiple segments"},
		{events.TierCritical, "host is reachable from both PCI and non-PCI segments"},
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 7, "Key", "", 1, "L", false, 0, "")

	for _, e := range entries {
		r, g, b := pw.tierFill(e.tier)
		pdf.SetFillColor(r, g, b)
		pdf.CellFormat(8, 5, "", "1", 0, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 5, fmt.Sprintf(" %s - %s", titleCase.String(string(e.tier)), e.text), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}
}

// addConcernsPage renders the areas-of-concern list and the
// explanatory paragraph, honoring the section toggles.
func (pw *PDFWriter) addConcernsPage(pdf *gofpdf.Fpdf) {
	showConcerns := pw.report.Sections.Concerns
	showBreakdown := pw.report.Sections.Breakdown
	if !showConcerns && !showBreakdown {
		return
	}

	pdf.AddPage()

	if showConcerns {
		pw.addSectionHeader(pdf, "Areas of Concern")

		var concerns []events.ConcernInfo
		if pw.matrix != nil {
			concerns = pw.matrix.Concerns
		}
		if len(concerns) == 0 {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(120, 120, 120)
			pdf.CellFormat(0, 6, "No areas of concern detected based on current matrix.", "", 1, "L", false, 0, "")
		}
		for _, c := range concerns {
			if c.Kind == events.ConcernCrossZone {
				pdf.SetFont("Helvetica", "B", 10)
				pdf.SetTextColor(178, 0, 0)
			} else {
				pdf.SetFont("Helvetica", "", 10)
				pdf.SetTextColor(181, 155, 0)
			}
			pdf.MultiCell(0, 6, c.Message, "", "L", false)
			pdf.Ln(1)
		}
		pdf.Ln(4)
	}

	if showBreakdown {
		pw.addSectionHeader(pdf, "Reading This Matrix")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, "This matrix shows which network segments can communicate with which hosts. "+
			"Each X cell means that the host was reachable from that segment during testing. "+
			"An elevated tier means a host is reachable from more than one segment, "+
			"which may suggest insufficient network segmentation. "+
			"A critical tier means a host is reachable from both PCI and non-PCI segments, "+
			"which is a critical concern for compliance and security. "+
			"We recommend reviewing any elevated or critical entries to ensure your "+
			"segmentation controls meet your policy and compliance requirements.", "", "L", false)
	}
}

package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/checkup-report-server/internal/domain"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Page headings of the lookup screen
const (
	PageHeading    = "ระบบรายงานผลตรวจสุขภาพ"
	PageSubheading = "- กลุ่มงานอาชีวเวชกรรม รพ.สันทราย -"
)

// YearOption is one entry of the year selector
type YearOption struct {
	Code     int
	Label    string
	Selected bool
}

// YearOptions builds the selector entries for years, newest first, marking selected.
func YearOptions(years []int, selected int) []YearOption {
	opts := make([]YearOption, 0, len(years))
	for _, y := range years {
		opts = append(opts, YearOption{Code: y, Label: domain.YearLabel(y), Selected: y == selected})
	}
	return opts
}

// Page is the data of the lookup screen: search form, optional message and optional report
type Page struct {
	Heading    string
	Subheading string
	Action     string
	Query      domain.PatientQuery
	Years      []YearOption
	Message    string
	Report     *domain.Report
}

// HTMLRenderer renders reports and the lookup page with html/template
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded templates
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing report templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// ContentType implements domain.ReportRenderer
func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements domain.ReportRenderer with a standalone HTML document
func (r *HTMLRenderer) Render(report *domain.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("rendering report: nil report")
	}
	return r.execute("report.html.tmpl", report)
}

// RenderPage renders the lookup screen
func (r *HTMLRenderer) RenderPage(page *Page) ([]byte, error) {
	if page.Heading == "" {
		page.Heading = PageHeading
	}
	if page.Subheading == "" {
		page.Subheading = PageSubheading
	}
	return r.execute("page.html.tmpl", page)
}

func (r *HTMLRenderer) execute(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("executing %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

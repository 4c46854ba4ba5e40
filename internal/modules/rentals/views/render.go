package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"

	"bikeshare-dashboard/internal/modules/rentals/analysis"
	"bikeshare-dashboard/internal/modules/rentals/service"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// ChartView is one chart card. SVG holds the inline drawing; Empty is set when
// the filters leave nothing to draw.
type ChartView struct {
	Name   string
	Title  string
	SVG    template.HTML
	PNGURL string
	Empty  bool
}

// PaginationItem is one entry in the pagination bar: either a page number or an ellipsis.
type PaginationItem struct {
	Page     int
	Ellipsis bool
}

// RowsData is the view model for the filtered table partial.
type RowsData struct {
	Rows        []analysis.TableRow
	Total       int
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	PageItems   []PaginationItem
	// Query is the filter query of the page, without "page".
	Query url.Values
}

// PageURL links to another page of the same filtered table.
func (d *RowsData) PageURL(page int) string {
	q := url.Values{}
	for k, v := range d.Query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return "/partials/rows?" + q.Encode()
}

type PageData struct {
	Title   string
	Report  *service.Report
	Charts  []ChartView
	Rows    *RowsData
	CSVURL  string
	XLSXURL string
}

func RenderDashboard(w io.Writer, data *PageData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

func RenderSingle(w io.Writer, data *PageData) error {
	if dashboardTmpl == nil {
		return errors.New("single template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "single.html", data)
}

// RenderRowsPartial executes only the table partial into w.
// Use for HTMX fragment refresh.
func RenderRowsPartial(w io.Writer, data *RowsData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/rows.html", data)
}

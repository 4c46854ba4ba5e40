package controller

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/invopop/jsonschema"

	"bikeshare-dashboard/internal/modules/rentals/analysis"
	"bikeshare-dashboard/internal/modules/rentals/charts"
	"bikeshare-dashboard/internal/modules/rentals/export"
	"bikeshare-dashboard/internal/modules/rentals/service"
	"bikeshare-dashboard/internal/modules/rentals/views"
	"bikeshare-dashboard/internal/utils"
)

const (
	cacheHeader = "X-Cache"
	htmlType    = "text/html; charset=utf-8"
	csvType     = "text/csv; charset=utf-8"
	xlsxType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var chartTitles = map[charts.Name]string{
	charts.Hourly:      "Mean rentals by hour of day",
	charts.DayType:     "Weekdays vs weekends",
	charts.Weekday:     "Mean rentals by day of week",
	charts.Temperature: "Mean rentals by temperature band",
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set(cacheHeader, "HIT")
	} else {
		w.Header().Set(cacheHeader, "MISS")
	}
}

// buildReport parses the filter of the requested variant and builds the
// report. It writes the error response itself and returns nil on failure.
func (c *rentalsControllerImpl) buildReport(w http.ResponseWriter, r *http.Request, variant service.Variant) *service.Report {
	var (
		report *service.Report
		hit    bool
		err    error
	)
	switch variant {
	case service.VariantSingle:
		q, perr := parseSingleQuery(r)
		if perr != nil {
			utils.WriteError(w, http.StatusBadRequest, perr.Error())
			return nil
		}
		report, hit, err = c.service.BuildSingle(r.Context(), q)
	default:
		q, perr := parseRangeQuery(r)
		if perr != nil {
			utils.WriteError(w, http.StatusBadRequest, perr.Error())
			return nil
		}
		report, hit, err = c.service.BuildRange(r.Context(), q)
	}
	if err != nil {
		slog.Error("build report failed", "variant", variant, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to build report")
		return nil
	}
	setCacheHeader(w, hit)
	return report
}

func (c *rentalsControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	c.renderPage(w, r, service.VariantRange, "Rentals by date range", views.RenderDashboard)
}

func (c *rentalsControllerImpl) handleSingle(w http.ResponseWriter, r *http.Request) {
	c.renderPage(w, r, service.VariantSingle, "Rentals by season and weather", views.RenderSingle)
}

func (c *rentalsControllerImpl) renderPage(w http.ResponseWriter, r *http.Request, variant service.Variant, title string, render func(io.Writer, *views.PageData) error) {
	report := c.buildReport(w, r, variant)
	if report == nil {
		return
	}

	q := r.URL.Query()
	if variant == service.VariantSingle {
		q.Set("variant", string(service.VariantSingle))
	}
	data := &views.PageData{
		Title:   title,
		Report:  report,
		Charts:  chartViews(report, q),
		Rows:    rowsData(report.Rows, 1, withoutPage(q)),
		CSVURL:  withQuery("/api/v1/export.csv", withoutPage(q)),
		XLSXURL: withQuery("/api/v1/export.xlsx", withoutPage(q)),
	}

	var buf bytes.Buffer
	if err := render(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "variant", variant, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", htmlType)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("dashboard: write response failed", "error", err)
	}
}

func chartViews(report *service.Report, q url.Values) []views.ChartView {
	out := make([]views.ChartView, 0, len(charts.Names))
	for _, name := range charts.Names {
		v := views.ChartView{
			Name:   string(name),
			Title:  chartTitles[name],
			PNGURL: withQuery("/charts/"+string(name)+"."+string(charts.FormatPNG), withoutPage(q)),
		}
		var buf bytes.Buffer
		err := service.RenderChart(&buf, report, name, charts.FormatSVG)
		switch {
		case errors.Is(err, charts.ErrNoData):
			v.Empty = true
		case err != nil:
			slog.Error("chart render failed", "chart", name, "error", err)
			v.Empty = true
		default:
			v.SVG = template.HTML(buf.String())
		}
		out = append(out, v)
	}
	return out
}

func rowsData(rows []analysis.TableRow, page int, q url.Values) *views.RowsData {
	totalPages := (len(rows) + rowsPageSize - 1) / rowsPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * rowsPageSize
	end := min(start+rowsPageSize, len(rows))

	return &views.RowsData{
		Rows:        rows[start:end],
		Total:       len(rows),
		CurrentPage: page,
		TotalPages:  totalPages,
		HasPrev:     page > 1,
		HasNext:     page < totalPages,
		PrevPage:    page - 1,
		NextPage:    page + 1,
		PageItems:   buildPageItems(totalPages, page),
		Query:       q,
	}
}

// buildPageItems returns page numbers and ellipsis for the pagination bar.
func buildPageItems(totalPages, currentPage int) []views.PaginationItem {
	if totalPages <= 0 {
		return nil
	}
	const window = 2
	show := map[int]bool{1: true, totalPages: true}
	for p := currentPage - window; p <= currentPage+window; p++ {
		if p >= 1 && p <= totalPages {
			show[p] = true
		}
	}
	var items []views.PaginationItem
	prev := 0
	for p := 1; p <= totalPages; p++ {
		if !show[p] {
			continue
		}
		if prev != 0 && p > prev+1 {
			items = append(items, views.PaginationItem{Ellipsis: true})
		}
		items = append(items, views.PaginationItem{Page: p})
		prev = p
	}
	return items
}

func (c *rentalsControllerImpl) handleRowsPartial(w http.ResponseWriter, r *http.Request) {
	variant, err := parseVariant(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report := c.buildReport(w, r, variant)
	if report == nil {
		return
	}

	data := rowsData(report.Rows, parsePage(r), withoutPage(r.URL.Query()))
	var buf bytes.Buffer
	if err := views.RenderRowsPartial(&buf, data); err != nil {
		slog.Error("rows partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	w.Header().Set("Content-Type", htmlType)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("rows: write response failed", "error", err)
	}
}

func (c *rentalsControllerImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	name, format, err := charts.ParseFile(r.PathValue("file"))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	variant, err := parseVariant(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report := c.buildReport(w, r, variant)
	if report == nil {
		return
	}

	var buf bytes.Buffer
	err = service.RenderChart(&buf, report, name, format)
	switch {
	case errors.Is(err, charts.ErrNoData):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case err != nil:
		slog.Error("chart render failed", "chart", name, "format", format, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
	default:
		utils.WriteBytes(w, http.StatusOK, format.ContentType(), buf.Bytes())
	}
}

func (c *rentalsControllerImpl) handleReport(w http.ResponseWriter, r *http.Request) {
	variant, err := parseVariant(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report := c.buildReport(w, r, variant)
	if report == nil {
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

func (c *rentalsControllerImpl) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := c.service.Options(r.Context())
	if err != nil {
		slog.Error("options failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load options")
		return
	}
	utils.WriteJSON(w, http.StatusOK, opts)
}

func (c *rentalsControllerImpl) handleSchema(w http.ResponseWriter, r *http.Request) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	utils.WriteJSON(w, http.StatusOK, reflector.Reflect(&service.Report{}))
}

func (c *rentalsControllerImpl) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	c.export(w, r, "rentals.csv", csvType, func(buf *bytes.Buffer, report *service.Report) error {
		return export.WriteCSV(buf, report.Rows)
	})
}

func (c *rentalsControllerImpl) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	c.export(w, r, "rentals.xlsx", xlsxType, func(buf *bytes.Buffer, report *service.Report) error {
		return export.WriteXLSX(buf, report.Rows, report.Summary)
	})
}

func (c *rentalsControllerImpl) export(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(*bytes.Buffer, *service.Report) error) {
	variant, err := parseVariant(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report := c.buildReport(w, r, variant)
	if report == nil {
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, report); err != nil {
		slog.Error("export failed", "file", filename, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to export")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	utils.WriteBytes(w, http.StatusOK, contentType, buf.Bytes())
}

package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ReportHandler interface {
	BulkStatus(w http.ResponseWriter, r *http.Request)
	MyReport(w http.ResponseWriter, r *http.Request)
	EmployeeReport(w http.ResponseWriter, r *http.Request)
	TeamReport(w http.ResponseWriter, r *http.Request)
	OrganizationReport(w http.ResponseWriter, r *http.Request)
	GetDetails(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// parseReportFilter reads start_date/end_date (startDate/endDate also accepted),
// month/year and page/limit. Non-numeric month, year, page or limit yield a 400
// with the offending field.
func parseReportFilter(r *http.Request) (report.ReportFilter, map[string]string) {
	q := r.URL.Query()
	filter := report.ReportFilter{
		StartDate: firstParam(q, "start_date", "startDate"),
		EndDate:   firstParam(q, "end_date", "endDate"),
	}

	invalid := map[string]string{}
	ints := []struct {
		key string
		dst *int
	}{
		{"month", &filter.Month},
		{"year", &filter.Year},
		{"page", &filter.Page},
		{"limit", &filter.Limit},
	}
	for _, p := range ints {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			invalid[p.key] = "invalid " + p.key + " parameter"
			continue
		}
		*p.dst = n
	}

	if len(invalid) > 0 {
		return filter, invalid
	}
	return filter, nil
}

func firstParam(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// BulkStatus handles POST /attendance/bulk-status
func (h *reportHandlerImpl) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var req report.BulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.reportService.BulkStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.Success(w, result)
}

// MyReport handles GET /attendance/my-report
func (h *reportHandlerImpl) MyReport(w http.ResponseWriter, r *http.Request) {
	filter, invalid := parseReportFilter(r)
	if invalid != nil {
		response.BadRequest(w, "Invalid query parameters", invalid)
		return
	}

	result, err := h.reportService.MyReport(r.Context(), filter)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.Success(w, result)
}

// EmployeeReport handles GET /attendance/report/employee/{employeeID}
func (h *reportHandlerImpl) EmployeeReport(w http.ResponseWriter, r *http.Request) {
	filter, invalid := parseReportFilter(r)
	if invalid != nil {
		response.BadRequest(w, "Invalid query parameters", invalid)
		return
	}

	result, err := h.reportService.EmployeeReport(r.Context(), chi.URLParam(r, "employeeID"), filter)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.Success(w, result)
}

// TeamReport handles GET /attendance/report/team
func (h *reportHandlerImpl) TeamReport(w http.ResponseWriter, r *http.Request) {
	req := report.TeamReportRequest{Date: r.URL.Query().Get("date")}

	result, err := h.reportService.TeamReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.Success(w, result)
}

// OrganizationReport handles GET /attendance/report/organization
func (h *reportHandlerImpl) OrganizationReport(w http.ResponseWriter, r *http.Request) {
	filter, invalid := parseReportFilter(r)
	if invalid != nil {
		response.BadRequest(w, "Invalid query parameters", invalid)
		return
	}

	result, err := h.reportService.OrganizationReport(r.Context(), filter)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.Success(w, result)
}

// GetDetails handles GET /attendance/details/{date}
func (h *reportHandlerImpl) GetDetails(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.GetDetails(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.Success(w, result)
}

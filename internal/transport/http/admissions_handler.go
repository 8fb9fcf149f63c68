package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"admissionsdash/internal/admissions"
	apierrors "admissionsdash/internal/errors"
	"admissionsdash/internal/exporter"
	"admissionsdash/internal/infrastructure"
	"admissionsdash/internal/middleware"
	"admissionsdash/internal/services"
)

// exportBaseName is the download name of exported tables.
const exportBaseName = "admission_results_filtered"

// AdmissionsHandler serves the dashboard views with RFC 7807 errors.
type AdmissionsHandler struct {
	service      AdmissionsServiceInterface
	exporter     TableExporter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAdmissionsHandler creates a new admissions handler
func NewAdmissionsHandler(service AdmissionsServiceInterface, exp TableExporter, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AdmissionsHandler {
	return &AdmissionsHandler{
		service:      service,
		exporter:     exp,
		logger:       infrastructure.WithComponent(logger, "admissions_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the admissions routes, mounted at /api/admissions.
func (h *AdmissionsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/options", h.GetOptions)
		r.Get("/records", h.GetRecords)
		r.Get("/universities", h.GetUniversities)
		r.Get("/trends/yearly", h.GetYearlyTrend)
		r.Get("/trends/yearly-by-track", h.GetYearlyTrackTrend)
		r.Get("/gpa/by-school-track", h.GetSchoolTrackGPA)
		r.Get("/groups/trends", h.GetGroupTrends)
		r.Get("/schema", h.GetSchema)
	})

	// Exports carry student names and grades; every download is audited.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuditLog(h.logger))
		r.With(middleware.TraceOperation("admissions.export.csv")).
			Get("/export.csv", h.exportHandler(exporter.FormatCSV))
		r.With(middleware.TraceOperation("admissions.export.xlsx")).
			Get("/export.xlsx", h.exportHandler(exporter.FormatXLSX))
	})

	return r
}

// GetOptions handles GET /api/admissions/options
func (h *AdmissionsHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, opts)
}

// GetRecords handles GET /api/admissions/records
func (h *AdmissionsHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	result, err := h.service.Records(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// GetUniversities handles GET /api/admissions/universities
func (h *AdmissionsHandler) GetUniversities(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	counts, err := h.service.UniversityCounts(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  counts,
		"count": len(counts),
	})
}

// GetYearlyTrend handles GET /api/admissions/trends/yearly
func (h *AdmissionsHandler) GetYearlyTrend(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	trend, err := h.service.YearlyTrend(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": trend})
}

// GetYearlyTrackTrend handles GET /api/admissions/trends/yearly-by-track
func (h *AdmissionsHandler) GetYearlyTrackTrend(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	trend, err := h.service.YearlyTrackTrend(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": trend})
}

// GetSchoolTrackGPA handles GET /api/admissions/gpa/by-school-track
func (h *AdmissionsHandler) GetSchoolTrackGPA(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	means, err := h.service.SchoolTrackGPA(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": means})
}

// GetGroupTrends handles GET /api/admissions/groups/trends
func (h *AdmissionsHandler) GetGroupTrends(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	trends, err := h.service.GroupTrends(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, trends)
}

// GetSchema handles GET /api/admissions/schema
func (h *AdmissionsHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.service.Schema(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, schema)
}

// exportHandler serves the filtered table as a download. The file is built
// in memory first so a failure still gets a problem response.
func (h *AdmissionsHandler) exportHandler(format exporter.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, ok := h.criteria(w, r)
		if !ok {
			return
		}

		table, err := h.service.Filtered(r.Context(), criteria)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := h.exporter.Write(r.Context(), &buf, table, format); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusInternalServerError, "EXPORT_FAILED", "Export failed", err.Error()))
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", contentDisposition(format.FileName(exportBaseName)))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			infrastructure.WithError(h.logger, err).WarnContext(r.Context(), "export download interrupted")
		}
	}
}

func contentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, filename, url.PathEscape(filename))
}

// criteria parses the filter query parameters, answering 400 itself when
// a value does not parse.
func (h *AdmissionsHandler) criteria(w http.ResponseWriter, r *http.Request) (services.FilterCriteria, bool) {
	c, fieldErrs := ParseFilterCriteria(r.URL.Query())
	if len(fieldErrs) > 0 {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fieldErrs))
		return services.FilterCriteria{}, false
	}
	return c, true
}

// ParseFilterCriteria reads the dashboard filters from query parameters.
// Absent or empty parameters leave the filter off; group may repeat.
func ParseFilterCriteria(q url.Values) (services.FilterCriteria, []apierrors.ValidationError) {
	var (
		c    services.FilterCriteria
		errs []apierrors.ValidationError
	)

	parseInt := func(name string, dst *int) {
		s := strings.TrimSpace(q.Get(name))
		if s == "" {
			return
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, apierrors.ValidationError{Field: name, Message: "must be an integer"})
			return
		}
		*dst = v
	}
	parseFloat := func(name string, dst *float64) {
		s := strings.TrimSpace(q.Get(name))
		if s == "" {
			return
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs = append(errs, apierrors.ValidationError{Field: name, Message: "must be a number"})
			return
		}
		*dst = v
	}

	parseInt("year_min", &c.YearMin)
	parseInt("year_max", &c.YearMax)
	parseFloat("gpa_min", &c.GPAMin)
	parseFloat("gpa_max", &c.GPAMax)

	c.MiddleSchool = strings.TrimSpace(q.Get("middle_school"))
	c.Track = strings.TrimSpace(q.Get("track"))
	c.Department = strings.TrimSpace(q.Get("department"))
	c.Keyword = q.Get("keyword")

	for _, g := range q["group"] {
		if g = strings.TrimSpace(g); g != "" {
			c.Groups = append(c.Groups, g)
		}
	}

	return c, errs
}

// fail maps service errors onto API errors.
func (h *AdmissionsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, services.ErrInvalidCriteria) && errors.As(err, &verrs):
		fields := make([]apierrors.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fields))
	case errors.Is(err, services.ErrInvalidCriteria):
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
	case errors.Is(err, admissions.ErrUnknownField):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "UNKNOWN_FIELD", "Unknown field", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gtefield":
		return fmt.Sprintf("must not be less than %s", fieldParamName(fe.Param()))
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte", "gt":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must have at most " + fe.Param() + " items or characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// fieldParamName turns a struct field reference into its query parameter.
func fieldParamName(field string) string {
	switch field {
	case "YearMin":
		return "year_min"
	case "GPAMin":
		return "gpa_min"
	default:
		return field
	}
}

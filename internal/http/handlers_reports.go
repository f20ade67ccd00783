package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"tiledash/internal/core"
	"tiledash/internal/log"
	"tiledash/internal/services"
	"tiledash/internal/sheets/excel"
)

// UpcomingResponse lists the payments of one month and their total.
type UpcomingResponse struct {
	Offset   int                        `json:"offset"`
	Month    core.MonthKey              `json:"month"`
	Payments []services.UpcomingPayment `json:"payments"`
	Total    core.Money                 `json:"total"`
}

// DueSoonResponse lists the payments due within Days, today included.
type DueSoonResponse struct {
	Days     int                        `json:"days"`
	Payments []services.UpcomingPayment `json:"payments"`
}

// SpendResponse adds display labels to the grouped spend.
type SpendResponse struct {
	services.SpendSummary
	Labels map[string]string `json:"labels"`
}

// dueSoonDays is the stored setting, then the configured default.
func (s *Server) dueSoonDays() int {
	if d := s.store.Settings().DueSoonDays; d > 0 {
		return d
	}
	if s.defaultDueSoonDays > 0 {
		return s.defaultDueSoonDays
	}
	return services.DefaultDueSoonDays
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseReportQuery(r, 0)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	now := s.now()
	payments := services.UpcomingPaymentsInMonth(s.store.Tiles(), q.Offset, now)
	writeJSON(w, http.StatusOK, UpcomingResponse{
		Offset:   q.Offset,
		Month:    core.MonthKeyOf(now).AddMonths(q.Offset),
		Payments: payments,
		Total:    services.SumPayments(payments),
	})
}

func (s *Server) handleDueSoon(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseReportQuery(r, s.dueSoonDays())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, DueSoonResponse{
		Days:     q.Days,
		Payments: services.DueSoon(s.store.Tiles(), q.Days, s.now()),
	})
}

func (s *Server) handleSpend(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseReportQuery(r, 0)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	by, err := services.ParseGroupBy(q.By)
	if err != nil {
		s.fail(w, r, log.OpRead, badRequest{err})
		return
	}
	summary := services.AggregateSpend(s.store.Tiles(), by)
	resp := SpendResponse{SpendSummary: summary, Labels: map[string]string{}}
	if by == services.ByCategory {
		labels := s.store.CategoryLabels()
		for _, g := range summary.Groups {
			resp.Labels[g.Key] = labels(g.Key)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseReportQuery(r, 0)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	month := core.MonthKey(q.Month)
	if month == "" {
		month = core.MonthKeyOf(s.now())
	}
	writeJSON(w, http.StatusOK, services.Reconcile(s.store.Tiles(), month))
}

// handleReportXLSX renders a report grid as a spreadsheet download.
func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["report"]
	q, err := s.parseReportQuery(r, 0)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	by, err := services.ParseGroupBy(q.By)
	if err != nil {
		s.fail(w, r, log.OpExport, badRequest{err})
		return
	}
	now := s.now()
	grid, err := services.BuildReport(s.store.Tiles(), s.store.CategoryLabels(), services.ReportRequest{
		Name:   name,
		Offset: q.Offset,
		By:     by,
		Month:  core.MonthKey(q.Month),
	}, now)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.Render(&buf, name, grid); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	filename := fmt.Sprintf("%s-%s.xlsx", name, now.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	log.NewStructuredLogger(log.FromContext(r.Context())).LogExported(r.Context(), name, filename, len(grid)-1)
}

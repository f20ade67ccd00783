package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"tiledash/internal/backup"
	"tiledash/internal/log"
	"tiledash/internal/quotes"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the store is loaded and the middleware
// counters the process keeps.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready"})
		return
	}
	snap := s.store.Snapshot()
	collections := map[string]int{
		"tiles":          len(snap.Tiles),
		"categories":     len(snap.BudgetCategories),
		"paymentMethods": len(snap.PaymentMethods),
		"tabs":           len(snap.Tabs),
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ready",
		"collections":        collections,
		"requests":           s.tracer.GetMetrics(),
		"rateLimit":          s.rateLimiter.GetMetrics(),
		"suspiciousRequests": s.detector.GetMetrics(),
	})
}

// handleExportBackup downloads every collection as one JSON document.
func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	data, err := backup.Export(s.store.Snapshot(), now)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	filename := fmt.Sprintf("tiledash-backup-%s.json", now.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImportBackup replaces every collection with the uploaded document.
// A document that fails to decode leaves the store untouched.
func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		s.fail(w, r, log.OpImport, badRequest{err})
		return
	}
	p, err := backup.Import(r.Context(), s.store, data)
	if err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Backup restored",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(p.Tiles))
	writeJSON(w, http.StatusOK, map[string]any{
		"version":          p.Version,
		"tiles":            len(p.Tiles),
		"budgetCategories": len(s.store.Categories()),
		"creditCards":      len(p.CreditCards),
		"tabs":             len(p.Tabs),
		"homePageTabs":     len(p.HomePageTabs),
	})
}

// handleQuotes lists the cached quote of every configured symbol. Symbols
// without a quote yet report a loading status.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	views := []quotes.View{}
	if s.quotes != nil {
		views = s.quotes.Views()
	}
	writeJSON(w, http.StatusOK, views)
}

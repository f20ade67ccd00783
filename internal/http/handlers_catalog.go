package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tiledash/internal/core"
	"tiledash/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	c, err := s.store.AddCategory(r.Context(), core.BudgetCategory{
		ID:            strings.TrimSpace(req.ID),
		Name:          strings.TrimSpace(req.Name),
		Icon:          req.Icon,
		Subcategories: req.Subcategories,
	})
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	c, err := s.store.UpdateCategory(r.Context(), core.BudgetCategory{
		ID:            mux.Vars(r)["id"],
		Name:          strings.TrimSpace(req.Name),
		Icon:          req.Icon,
		Subcategories: req.Subcategories,
	})
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

func (s *Server) handleResetCategories(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetCategories(r.Context()); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.PaymentMethods())
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req PaymentMethodRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	p, err := s.store.AddPaymentMethod(r.Context(), req.toPaymentMethod())
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	var req PaymentMethodRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	p := req.toPaymentMethod()
	p.ID = id
	p, err = s.store.UpdatePaymentMethod(r.Context(), p)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.store.DeletePaymentMethod(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Tabs())
}

// handleSaveTab creates a tab on POST and replaces it on PUT.
func (s *Server) handleSaveTab(w http.ResponseWriter, r *http.Request) {
	var id int64
	if _, ok := mux.Vars(r)["id"]; ok {
		var err error
		if id, err = pathID(r, "id"); err != nil {
			s.fail(w, r, log.OpUpdate, err)
			return
		}
	}
	var req TabRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	tab, err := s.store.SaveTab(r.Context(), core.Tab{
		ID:            id,
		Name:          strings.TrimSpace(req.Name),
		HomePageTabID: req.HomePageTabID,
		StockTicker:   req.StockTicker,
		Subcategories: req.Subcategories,
	})
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, tab)
}

func (s *Server) handleDeleteTab(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.store.DeleteTab(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

func (s *Server) handleListHomePageTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.HomePageTabs())
}

func (s *Server) handleSaveHomePageTab(w http.ResponseWriter, r *http.Request) {
	var id int64
	if _, ok := mux.Vars(r)["id"]; ok {
		var err error
		if id, err = pathID(r, "id"); err != nil {
			s.fail(w, r, log.OpUpdate, err)
			return
		}
	}
	var req HomePageTabRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	tab, err := s.store.SaveHomePageTab(r.Context(), core.HomePageTab{
		ID:    id,
		Name:  strings.TrimSpace(req.Name),
		Order: req.Order,
	})
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, tab)
}

func (s *Server) handleDeleteHomePageTab(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.store.DeleteHomePageTab(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	settings := core.Settings{
		DueSoonDays:  req.DueSoonDays,
		StockSymbols: req.StockSymbols,
		Currency:     req.Currency,
	}
	if settings.Currency == "" {
		settings.Currency = s.store.Settings().Currency
	}
	if err := s.store.UpdateSettings(r.Context(), settings); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Settings())
}

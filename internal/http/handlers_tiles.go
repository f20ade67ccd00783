package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tiledash/internal/core"
	"tiledash/internal/log"
)

func (s *Server) handleListTiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Tiles())
}

func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	tile, err := s.store.Tile(id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, tile)
}

func (s *Server) handleCreateTile(w http.ResponseWriter, r *http.Request) {
	var req TileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	tile, err := s.store.AddTile(r.Context(), req.toTile())
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.events.LogTileChanged(r.Context(), log.OpCreate, tile.ID, tile.Name)
	writeJSON(w, http.StatusCreated, tile)
}

// handleUpdateTile replaces the writable fields. The recorded budget
// history is kept; it only changes through the history endpoint.
func (s *Server) handleUpdateTile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	var req TileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	existing, err := s.store.Tile(id)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	tile := req.toTile()
	tile.ID = id
	tile.BudgetHistory = existing.BudgetHistory

	tile, err = s.store.UpdateTile(r.Context(), tile)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.events.LogTileChanged(r.Context(), log.OpUpdate, tile.ID, tile.Name)
	writeJSON(w, http.StatusOK, tile)
}

func (s *Server) handleDeleteTile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.store.DeleteTile(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.events.LogTileChanged(r.Context(), log.OpDelete, id, "")
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

func (s *Server) handleMoveTile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpMove, err)
		return
	}
	var req MoveRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpMove, err)
		return
	}
	tile, err := s.store.MoveTile(r.Context(), id, req.CategoryID, req.Subcategory)
	if err != nil {
		s.fail(w, r, log.OpMove, err)
		return
	}
	s.events.LogTileChanged(r.Context(), log.OpMove, tile.ID, tile.Name)
	writeJSON(w, http.StatusOK, tile)
}

func (s *Server) handleRecordActual(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpRecord, err)
		return
	}
	month, err := core.ParseMonthKey(mux.Vars(r)["month"])
	if err != nil {
		s.fail(w, r, log.OpRecord, badRequest{err})
		return
	}
	var req ActualRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpRecord, err)
		return
	}
	if req.Actual.Cents < 0 {
		s.fail(w, r, log.OpRecord, core.ErrInvalidAmount)
		return
	}
	tile, err := s.store.RecordActual(r.Context(), id, month, req.Actual, req.PaidDate, req.Notes)
	if err != nil {
		s.fail(w, r, log.OpRecord, err)
		return
	}
	s.events.LogTileChanged(r.Context(), log.OpRecord, tile.ID, tile.Name)
	writeJSON(w, http.StatusOK, tile)
}

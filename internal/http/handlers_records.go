package http

import (
	"net/http"

	applog "presenze/internal/log"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"records": recordViews(s.ledger.ListNewestFirst(), s.ledger.Rules()),
	}).Write(w)
}

func (s *Server) handleClockIn(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.ClockIn(r.Context(), s.ledger.Now())
	if err != nil {
		s.fail(w, r, applog.OpClockIn, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newRecordView(rec, s.ledger.Rules())).Write(w)
}

func (s *Server) handleClockOut(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.ClockOut(r.Context(), r.PathValue("id"), s.ledger.Now())
	if err != nil {
		s.fail(w, r, applog.OpClockOut, err)
		return
	}
	NewJSONResponse().Body(newRecordView(rec, s.ledger.Rules())).Write(w)
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, err := s.ledger.Backfill(r.Context(), sanitizeInput(req.Date), sanitizeInput(req.Attend), sanitizeInput(req.Leave))
	if err != nil {
		s.fail(w, r, applog.OpBackfill, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newRecordView(rec, s.ledger.Rules())).Write(w)
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, err := s.ledger.EditTimes(r.Context(), r.PathValue("id"), sanitizeInput(req.Attend), sanitizeInput(req.Leave))
	if err != nil {
		s.fail(w, r, applog.OpEdit, err)
		return
	}
	NewJSONResponse().Body(newRecordView(rec, s.ledger.Rules())).Write(w)
}

// handleDeleteRecord requires ?confirm=true; the UI asks the user first.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if !queryBool(r, "confirm") {
		ErrorResponse(http.StatusPreconditionRequired, "confirmation_required",
			"deleting a record needs confirm=true").Write(w)
		return
	}
	if _, err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.Repair(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpRepair, err)
		return
	}
	ids := res.IDs
	if ids == nil {
		ids = []string{}
	}
	NewJSONResponse().Body(map[string]any{
		"changed":      res.Changed,
		"ids":          ids,
		"nothingToFix": res.NothingToFix(),
	}).Write(w)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"name": s.ledger.User()}).Write(w)
}

func (s *Server) handlePutUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	name, err := s.ledger.SetUser(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		s.fail(w, r, applog.OpProfile, err)
		return
	}
	NewJSONResponse().Body(map[string]string{"name": name}).Write(w)
}

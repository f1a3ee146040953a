package http

import (
	"net/http"

	applog "presenze/internal/log"
	"presenze/internal/report"
	"presenze/internal/services"
)

const recentMonthsDefault = 6

// handleMonth serves the calendar grid of one month with its totals.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	records := s.ledger.Records()
	rules := s.ledger.Rules()
	cells := report.BuildMonth(year, month, records, s.ledger.Location())

	NewJSONResponse().Body(map[string]any{
		"year":   year,
		"month":  int(month),
		"cells":  cellViews(cells, rules),
		"totals": report.Totals(report.InMonth(records, year, month), rules),
	}).Write(w)
}

func (s *Server) handleRecentMonths(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", recentMonthsDefault, 24)
	NewJSONResponse().Body(map[string]any{
		"months": report.RecentMonths(s.ledger.Now(), n),
	}).Write(w)
}

func (s *Server) handleExportOptions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"options": report.BiweeklyOptions(s.ledger.Records()),
	}).Write(w)
}

// handleExportBounds gives the date picker its range: the first recorded
// day up to today.
func (s *Server) handleExportBounds(w http.ResponseWriter, r *http.Request) {
	first, last, ok := s.ledger.DateBounds()
	today := s.ledger.Now().Format("2006-01-02")
	body := map[string]any{"empty": !ok, "today": today, "min": today, "max": today}
	if ok {
		body["min"] = first.String()
		body["last"] = last.String()
		if last.String() > today {
			body["max"] = last.String()
		}
	}
	NewJSONResponse().Body(body).Write(w)
}

func exportRequestFrom(req exportRequest) services.ExportRequest {
	return services.ExportRequest{
		Key:    sanitizeInput(req.Key),
		Start:  sanitizeInput(req.Start),
		End:    sanitizeInput(req.End),
		Header: sanitizeInput(req.Header),
	}
}

// handleExportRows previews the rows of ?key= or ?start=&end=.
func (s *Server) handleExportRows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sheet, err := s.exports.Preview(r.Context(), exportRequestFrom(exportRequest{
		Key:    q.Get("key"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
		Header: q.Get("header"),
	}))
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"title":   sheet.Title,
		"header":  sheet.Header,
		"columns": report.RowHeader,
		"rows":    sheet.Rows,
	}).Write(w)
}

// handleExport queues an export, answering 202, or writes it directly,
// answering 200 with the sink reference.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	res, err := s.exports.Export(r.Context(), exportRequestFrom(req))
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}
	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	NewJSONResponse().Status(status).Body(res).Write(w)
}

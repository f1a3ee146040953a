package report

import (
	"strings"
	"time"

	"presenze/internal/core"
)

// Row is the projection of a record handed to export renderers.
type Row struct {
	Date   string `json:"date"`
	Attend string `json:"attend"`
	Leave  string `json:"leave"`
}

// RowHeader is the column header every sink writes above the rows.
var RowHeader = []string{"Date", "Attend", "Leave"}

const absentLeave = "12:00 AM"

func Rows(records []core.Record) []Row {
	out := make([]Row, len(records))
	for i, r := range records {
		leave := absentLeave
		if r.HasLeave() {
			leave = core.FormatClock12(r.Leave)
		}
		out[i] = Row{
			Date:   core.FormatDateGB(r.Attend),
			Attend: core.FormatClock12(r.Attend),
			Leave:  leave,
		}
	}
	return out
}

// Sheet is a titled block of rows, optionally preceded by a free-text
// header line.
type Sheet struct {
	Title  string `json:"title"`
	Header string `json:"header,omitempty"`
	Rows   []Row  `json:"rows"`
}

// SheetRequest selects records either by half-month Key or by Start/End
// dates. Key wins when both are set.
type SheetRequest struct {
	Key    string
	Start  string
	End    string
	Header string
}

// BuildSheet selects records for req and projects them into a Sheet.
func BuildSheet(records []core.Record, req SheetRequest, loc *time.Location) (Sheet, error) {
	var (
		title    string
		selected []core.Record
		err      error
	)
	if key := strings.TrimSpace(req.Key); key != "" {
		k, perr := ParseRangeKey(key)
		if perr != nil {
			return Sheet{}, perr
		}
		title = k.Filename()
		selected, err = SelectHalfMonth(records, k)
	} else {
		title = RangeFilename(req.Start, req.End)
		selected, err = FilterRange(records, req.Start, req.End, loc)
	}
	if err != nil {
		return Sheet{}, err
	}
	return Sheet{Title: title, Header: strings.TrimSpace(req.Header), Rows: Rows(selected)}, nil
}

package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindHalfMonth = "halfmonth"
	KindRange     = "range"
)

// ExportJob asks the worker to render one export. A half-month job carries
// the range key ("2024-2-1-15"); a range job carries start and end dates.
// The worker rebuilds the rows from the ledger, so the message stays small.
type ExportJob struct {
	Kind      string    `json:"kind"`
	Key       string    `json:"key,omitempty"`
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	Header    string    `json:"header,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHalfMonthJob(key, header string) *ExportJob {
	return &ExportJob{Kind: KindHalfMonth, Key: key, Header: header, Timestamp: time.Now()}
}

func NewRangeJob(start, end, header string) *ExportJob {
	return &ExportJob{Kind: KindRange, Start: start, End: end, Header: header, Timestamp: time.Now()}
}

func (j *ExportJob) Validate() error {
	switch j.Kind {
	case KindHalfMonth:
		if strings.TrimSpace(j.Key) == "" {
			return errors.New("halfmonth job without key")
		}
	case KindRange:
		if strings.TrimSpace(j.Start) == "" || strings.TrimSpace(j.End) == "" {
			return errors.New("range job without start or end")
		}
	default:
		return fmt.Errorf("unknown job kind %q", j.Kind)
	}
	return nil
}

func (j *ExportJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

func ExportJobFromJSON(data []byte) (*ExportJob, error) {
	var job ExportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

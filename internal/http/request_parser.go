package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 64 << 10

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// backfillRequest carries POST /api/records. Blank fields are left for the
// ledger to reject so the error stays a domain one.
type backfillRequest struct {
	Date   string `json:"date" validate:"max=10"`
	Attend string `json:"attend" validate:"max=5"`
	Leave  string `json:"leave" validate:"max=5"`
}

type editRequest struct {
	Attend string `json:"attend" validate:"omitempty,max=5"`
	Leave  string `json:"leave" validate:"omitempty,max=5"`
}

type exportRequest struct {
	Key    string `json:"key" validate:"omitempty,max=16"`
	Start  string `json:"start" validate:"omitempty,max=10"`
	End    string `json:"end" validate:"omitempty,max=10"`
	Header string `json:"header" validate:"omitempty,max=100"`
}

type userRequest struct {
	Name string `json:"name" validate:"max=64"`
}

// decodeJSON reads one JSON object into dst and checks its validate tags.
// An empty body decodes as {}.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if err := requestValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("field %s failed %q", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// parseYearMonth reads the {year} and {month} path values.
func parseYearMonth(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, fmt.Errorf("invalid year %q", r.PathValue("year"))
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", r.PathValue("month"))
	}
	return year, time.Month(month), nil
}

// queryInt reads a positive integer query value, falling back to def.
func queryInt(r *http.Request, name string, def, max int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return min(n, max)
}

func queryBool(r *http.Request, name string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && b
}

// Package export declares the outbound port export renderers implement.
package export

import (
	"context"

	"presenze/internal/report"
)

type (
	// SheetWriter renders a titled block of attendance rows somewhere a
	// person can open it. The returned ref locates the written range.
	SheetWriter interface {
		WriteSheet(ctx context.Context, sheet report.Sheet) (ref string, err error)
	}
)

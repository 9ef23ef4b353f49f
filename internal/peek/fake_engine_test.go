package peek

import (
	"context"

	"github.com/tanelpoder/xtop-engine/internal/model"
	"github.com/tanelpoder/xtop-engine/internal/querybuilder"
)

// fakeEngine satisfies the peek.Engine interface without a real DuckDB
// connection, so peek providers can be tested without the toolchain's
// database driver being runnable in this environment.
type fakeEngine struct {
	result    *model.Result
	stackSyms string
	stackOK   bool
}

func (f *fakeEngine) RunHistogramDrillDown(ctx context.Context, kind querybuilder.HistogramKind, where string, tr model.TimeRange, gran model.Granularity) (*model.Result, error) {
	return f.result, nil
}

func (f *fakeEngine) LookupStack(ctx context.Context, hash string, isKernel bool) (string, bool, error) {
	return f.stackSyms, f.stackOK, nil
}

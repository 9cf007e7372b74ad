package driver

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"bract/internal/bir"
	"bract/internal/mono"
	"bract/internal/region"
	"bract/internal/types"
)

// lowerBIRModuleParallel lowers every monomorphized function to BIR on an
// errgroup worker pool, one goroutine per function, capped at jobs
// in-flight at once. Grounded on the teacher's DiagnoseDirWithOptions/
// ParseDir, which hand each worker a unique result-slice index so no mutex
// is needed; the merge into the final bir.Module happens back on the
// calling goroutine once every worker has finished.
func lowerBIRModuleParallel(ctx context.Context, mm *mono.MonoModule, typesIn *types.Interner, jobs int) (*bir.Module, error) {
	if mm == nil {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = 1
	}

	type indexed struct {
		mf *mono.MonoFunc
	}
	items := make([]indexed, 0, len(mm.Funcs))
	for _, mf := range mm.Funcs {
		if mf == nil || mf.Func == nil {
			continue
		}
		items = append(items, indexed{mf: mf})
	}
	if len(items) == 0 {
		return bir.NewModule(), nil
	}

	results := make([]*bir.Func, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(items)))

	for i, it := range items {
		g.Go(func(i int, mf *mono.MonoFunc) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				regions := mf.Func.Regions
				if regions == nil {
					regions = region.NewTable()
				}
				f, err := bir.LowerFunc(bir.FuncID(i+1), mf.Func, typesIn, regions, nil)
				if err != nil {
					return fmt.Errorf("lowering %s: %w", mf.Func.Name, err)
				}
				f.Sym = mf.InstanceSym
				bir.SimplifyCFG(f)
				f.EliminateDeadInstrs()
				results[i] = f
				return nil
			}
		}(i, it.mf))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := bir.NewModule()
	for _, f := range results {
		if f == nil {
			continue
		}
		out.Funcs[f.ID] = f
		out.FuncBySym[f.Sym] = f.ID
	}
	return out, nil
}

package provisioning

import (
	"context"
	"fmt"
	"log/slog"
)

// step is one stage of the provisioning flow. compensate undoes run and may
// be nil for stages with no lasting side effect.
type step struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes the steps in order. When one fails, the compensations of
// every completed step run in reverse order, so the system converges back to
// the state before the flow started. Compensation failures are logged and do
// not mask the original error.
func runSaga(ctx context.Context, steps []step) error {
	var completed []step
	for _, st := range steps {
		if err := st.run(ctx); err != nil {
			compensate(ctx, completed)
			return fmt.Errorf("%s: %w", st.name, err)
		}
		completed = append(completed, st)
	}
	return nil
}

func compensate(ctx context.Context, completed []step) {
	for i := len(completed) - 1; i >= 0; i-- {
		st := completed[i]
		if st.compensate == nil {
			continue
		}
		if err := st.compensate(ctx); err != nil {
			slog.Error("saga compensation failed", "step", st.name, "error", err)
		}
	}
}

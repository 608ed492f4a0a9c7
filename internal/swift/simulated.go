package swift

import (
	"context"

	"github.com/google/uuid"
)

// SimulatedSubmitter stands in for the correspondent banking network:
// Submit always succeeds with a synthesized network reference.
type SimulatedSubmitter struct{}

// Submit implements Submitter.
func (SimulatedSubmitter) Submit(_ context.Context, reference, _ string) (string, error) {
	return "SWF-" + reference + "-" + uuid.Must(uuid.NewV7()).String(), nil
}

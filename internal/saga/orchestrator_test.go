package saga_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/saga"
)

type recordingStep struct {
	name        string
	executeErr  error
	compErr     error
	executed    *int
	compensated *[]string
}

func (s recordingStep) Name() string { return s.name }

func (s recordingStep) Execute(context.Context) error {
	*s.executed++
	return s.executeErr
}

func (s recordingStep) Compensate(context.Context) error {
	*s.compensated = append(*s.compensated, s.name)
	return s.compErr
}

func TestRun_AllStepsSucceed_Completes(t *testing.T) {
	repo := saga.NewMemoryRepository()
	orc := saga.NewOrchestrator(repo)

	executed := 0
	compensated := []string{}

	def := saga.Definition{Type: "test", Steps: []saga.Step{
		recordingStep{name: "a", executed: &executed, compensated: &compensated},
		recordingStep{name: "b", executed: &executed, compensated: &compensated},
	}}

	record := saga.NewRecord(uuid.Must(uuid.NewV7()), "test", "ref-1", time.Now())

	err := orc.Run(context.Background(), record, def)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCompleted, record.State)
	assert.Equal(t, 2, executed)
	assert.Empty(t, compensated)
	assert.Equal(t, []string{"a", "b"}, record.ExecutedStepIDs)
}

func TestRun_MidStepFailure_CompensatesInReverseOrder(t *testing.T) {
	repo := saga.NewMemoryRepository()
	orc := saga.NewOrchestrator(repo)

	executed := 0
	compensated := []string{}

	def := saga.Definition{Type: "test", Steps: []saga.Step{
		recordingStep{name: "a", executed: &executed, compensated: &compensated},
		recordingStep{name: "b", executed: &executed, compensated: &compensated},
		recordingStep{name: "c", executed: &executed, executeErr: errors.New("boom"), compensated: &compensated},
	}}

	record := saga.NewRecord(uuid.Must(uuid.NewV7()), "test", "ref-2", time.Now())

	err := orc.Run(context.Background(), record, def)
	require.Error(t, err)
	assert.Equal(t, saga.StateCompensated, record.State)
	assert.Equal(t, []string{"b", "a"}, compensated, "compensation must run in reverse execution order")
}

func TestRun_CompensationFailure_TerminatesFailed(t *testing.T) {
	repo := saga.NewMemoryRepository()
	orc := saga.NewOrchestrator(repo)

	executed := 0
	compensated := []string{}

	def := saga.Definition{Type: "test", Steps: []saga.Step{
		recordingStep{name: "a", executed: &executed, compensated: &compensated, compErr: errors.New("cannot undo")},
		recordingStep{name: "b", executed: &executed, executeErr: errors.New("boom"), compensated: &compensated},
	}}

	record := saga.NewRecord(uuid.Must(uuid.NewV7()), "test", "ref-3", time.Now())

	err := orc.Run(context.Background(), record, def)
	require.Error(t, err)
	assert.Equal(t, saga.StateFailed, record.State)
}

func TestResume_SkipsAlreadyExecutedSteps(t *testing.T) {
	repo := saga.NewMemoryRepository()
	orc := saga.NewOrchestrator(repo)

	executed := 0
	compensated := []string{}

	def := saga.Definition{Type: "test", Steps: []saga.Step{
		recordingStep{name: "a", executed: &executed, compensated: &compensated},
		recordingStep{name: "b", executed: &executed, compensated: &compensated},
	}}

	record := saga.NewRecord(uuid.Must(uuid.NewV7()), "test", "ref-4", time.Now())
	record.ExecutedStepIDs = []string{"a"}
	record.State = saga.StateRunning
	require.NoError(t, repo.Create(context.Background(), record))

	err := orc.Resume(context.Background(), record, def)
	require.NoError(t, err)
	assert.Equal(t, 1, executed, "step a must not re-execute")
	assert.Equal(t, saga.StateCompleted, record.State)
}

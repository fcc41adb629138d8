package pu

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armemu/common"
	icommon "armemu/internal/common"
	"armemu/internal/emu"
	"armemu/internal/idec"
	"armemu/internal/memory"
	"armemu/internal/program"
	"armemu/internal/result"
)

// spin is "b ." and never terminates on its own.
const spin emu.DataUnit = 0x14000000

func TestNew_Validation(t *testing.T) {
	ram := memory.NewRandomAccessMemory(64)

	_, err := New(nil)
	assert.Equal(t, icommon.KindConfiguration, icommon.KindOfError(err))

	_, err = New(ram, WithStackSize(0))
	assert.Equal(t, icommon.KindConfiguration, icommon.KindOfError(err))

	_, err = New(ram, WithStackSize(65))
	assert.Equal(t, icommon.KindConfiguration, icommon.KindOfError(err))

	pu, err := New(ram, WithStackSize(64), WithName("core0.pu"))
	require.NoError(t, err)
	defer pu.Close()
	assert.Equal(t, emu.Address(64), pu.StackSize())
	assert.Equal(t, "core0.pu", pu.Name())
	assert.Equal(t, emu.StatusIdle, pu.Status())
	assert.Equal(t, emu.EL0, pu.GetCurrentProcessState().EL)
}

func TestRun_SampleProgram(t *testing.T) {
	pu, _ := newTestPU(t)
	r := pu.Run(program.Sample())
	require.NoError(t, r.WaitReady(testContext(t)))

	require.Equal(t, result.StateReady, r.GetState(), "err: %v", r.Err())
	assert.True(t, r.IsReady())
	assert.False(t, r.CanStepIn())
	x0, err := r.GetGPRegisterValue(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), x0)
	assert.Equal(t, emu.ReturnAddress, r.GetPC())
	assert.Equal(t, uint64(255), r.GetSP())
	assert.NoError(t, r.Err())
	assert.Equal(t, emu.StatusIdle, pu.Status())

	// cmp w0, #5 was the last flag-setting instruction.
	assert.True(t, pu.GetCurrentProcessState().Z)

	want := WatcherSnapshot{
		ProcessesHandled: 1,
		Instructions:     13,
		Classes: []ClassCount{
			{idec.ClassAddSubImmediate, 4},
			{idec.ClassMoveWideImmediate, 2},
			{idec.ClassConditionalBranch, 2},
			{idec.ClassUnconditionalBranchRegister, 1},
			{idec.ClassUnconditionalBranchImmediate, 1},
			{idec.ClassLoadStoreUnsignedImmediate, 3},
		},
	}
	if diff := cmp.Diff(want, pu.Watcher().Snapshot()); diff != "" {
		t.Errorf("watcher mismatch (-want +got):\n%s", diff)
	}
	assert.ErrorIs(t, r.StepIn(testContext(t)), result.ErrCannotStep)
}

func TestRun_LogsExecutedInstructions(t *testing.T) {
	var out bytes.Buffer
	logger := common.NewStdLoggerWithWriter(&out, &out, common.SeverityDebug)
	pu, _ := newTestPU(t, WithLogger(logger), WithName("pu0"))

	r := pu.Run(program.Sample())
	require.NoError(t, r.WaitReady(testContext(t)))

	log := out.String()
	assert.Contains(t, log, "[pu0]")
	assert.Contains(t, log, "executing 11010001000000000100001111111111 as AddSubImmediate from DataProcessingImmediate group")
	assert.Equal(t, 13, strings.Count(log, "executing "))
}

func TestStepIn_SampleProgram(t *testing.T) {
	pu, _ := newTestPU(t)
	cr := pu.StepIn(program.Sample())
	ctx := testContext(t)
	require.True(t, cr.CanStepIn())

	require.NoError(t, cr.WaitForState(ctx, result.StateStepInMode))
	assert.Equal(t, uint64(0), cr.GetPC())
	assert.Equal(t, uint64(255), cr.GetSP())
	assert.Equal(t, emu.ReturnAddress, cr.GetResultFrame().X[30])

	n, err := cr.Steps(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, uint64(2), cr.GetPC())
	assert.Equal(t, uint64(239), cr.GetSP())
	assert.Equal(t, uint64(5), cr.GetResultFrame().X[0])
	assert.Equal(t, result.StateStepInMode, cr.GetState())

	n, err = cr.Steps(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, result.StateReady, cr.GetState())
	assert.Equal(t, emu.ReturnAddress, cr.GetPC())
	assert.Equal(t, uint64(5), cr.GetResultFrame().X[0])

	// Stepping a finished program is a no-op.
	require.NoError(t, cr.StepIn(ctx))
	assert.Equal(t, uint64(13), pu.Watcher().InstructionCount())
}

func TestRun_BadProgram(t *testing.T) {
	pu, _ := newTestPU(t)

	for _, prog := range []program.Program{{}, program.FromWords([]emu.DataUnit{spin}, 1)} {
		r := pu.Run(prog)
		require.NoError(t, r.WaitReady(testContext(t)))
		assert.Equal(t, result.StateInterrupted, r.GetState())
		assert.Equal(t, icommon.KindPrecondition, icommon.KindOfError(r.Err()))
	}
	assert.Equal(t, emu.StatusIdle, pu.Status())
}

func TestStop_InterruptsRunningAndQueued(t *testing.T) {
	pu, _ := newTestPU(t)
	ctx := testContext(t)

	running := pu.Run(program.FromWords([]emu.DataUnit{spin}, 0))
	require.NoError(t, running.WaitForState(ctx, result.StateRunning))
	queued := pu.Run(program.Sample())

	pu.Stop()
	require.NoError(t, running.WaitReady(ctx))
	require.NoError(t, queued.WaitReady(ctx))

	for _, r := range []*result.Result{running, queued} {
		assert.Equal(t, result.StateInterrupted, r.GetState())
		assert.True(t, errors.Is(r.Err(), ErrInterrupted), "err = %v", r.Err())
	}
	assert.Equal(t, emu.StatusInterrupted, pu.Status())
	assert.Equal(t, uint64(2), pu.Watcher().ProcessesHandled())
	assert.Equal(t, uint64(2), pu.Watcher().ProcessesInterrupted())

	// Programs submitted while stopped are interrupted too.
	late := pu.Run(program.Sample())
	require.NoError(t, late.WaitReady(ctx))
	assert.Equal(t, result.StateInterrupted, late.GetState())
	assert.Equal(t, uint64(3), pu.Watcher().ProcessesHandled())
	assert.Equal(t, uint64(3), pu.Watcher().ProcessesInterrupted())

	require.NoError(t, pu.Reset())
	assert.Equal(t, emu.StatusIdle, pu.Status())

	again := pu.Run(program.Sample())
	require.NoError(t, again.WaitReady(ctx))
	assert.Equal(t, result.StateReady, again.GetState())
	assert.Equal(t, uint64(5), again.GetResultFrame().X[0])
}

func TestStop_LateProgramsNeverRun(t *testing.T) {
	pu, _ := newTestPU(t)
	ctx := testContext(t)
	pu.Stop()

	var sawRunning atomic.Bool
	done := make(chan struct{})
	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		for {
			select {
			case <-done:
				return
			default:
			}
			if pu.Status() == emu.StatusRunning {
				sawRunning.Store(true)
			}
		}
	}()

	const n = 50
	for i := 0; i < n; i++ {
		r := pu.Run(program.Sample())
		require.NoError(t, r.WaitReady(ctx))
		require.Equal(t, result.StateInterrupted, r.GetState())
		require.ErrorIs(t, r.Err(), ErrInterrupted)
	}
	close(done)
	<-sampled

	assert.False(t, sawRunning.Load(), "a stopped unit reported Running")
	assert.Equal(t, uint64(n), pu.Watcher().ProcessesHandled())
	assert.Equal(t, uint64(n), pu.Watcher().ProcessesInterrupted())
	assert.Zero(t, pu.Watcher().InstructionCount())
	require.NoError(t, pu.Reset())
}

func TestStepIn_DroppedHandleReleasesUnit(t *testing.T) {
	pu, _ := newTestPU(t)
	ctx := testContext(t)

	func() {
		cr := pu.StepIn(program.Sample())
		require.NoError(t, cr.WaitForState(ctx, result.StateStepInMode))
	}()

	next := pu.Run(program.Sample())
	require.Eventually(t, func() bool {
		runtime.GC()
		return next.GetState().IsTerminal()
	}, testTimeout, 10*time.Millisecond, "a program queued behind a dropped stepper never ran")

	assert.Equal(t, result.StateReady, next.GetState())
	assert.Equal(t, uint64(5), next.GetResultFrame().X[0])
	assert.Equal(t, uint64(1), pu.Watcher().ProcessesInterrupted())
	assert.Equal(t, emu.StatusIdle, pu.Status())
}

func TestStop_ReleasesParkedStepper(t *testing.T) {
	pu, _ := newTestPU(t)
	ctx := testContext(t)

	cr := pu.StepIn(program.FromWords([]emu.DataUnit{spin}, 0))
	n, err := cr.Steps(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	assert.Equal(t, uint64(0), cr.GetPC())
	assert.Equal(t, uint64(3), pu.Watcher().InstructionCount())

	pu.Stop()
	require.NoError(t, cr.WaitReady(ctx))
	assert.Equal(t, result.StateInterrupted, cr.GetState())
	assert.ErrorIs(t, cr.Err(), ErrInterrupted)

	// Further steps are no-ops once terminal.
	assert.NoError(t, cr.StepIn(ctx))
}

func TestReset_FailsWhileRunning(t *testing.T) {
	pu, _ := newTestPU(t)
	ctx := testContext(t)

	cr := pu.StepIn(program.Sample())
	require.NoError(t, cr.WaitForState(ctx, result.StateStepInMode))
	assert.ErrorIs(t, pu.Reset(), ErrRunning)
	assert.Equal(t, icommon.KindPrecondition, icommon.KindOfError(pu.Reset()))

	cr.Close()
	require.NoError(t, cr.WaitReady(ctx))
	assert.ErrorIs(t, cr.Err(), result.ErrClosed)
}

func TestReset_ClearsCache(t *testing.T) {
	ram := memory.NewRandomAccessMemory(emu.KB(4))
	l1, err := memory.NewCacheMemory(ram, 64)
	require.NoError(t, err)
	pu, err := New(l1, WithStackSize(256))
	require.NoError(t, err)
	defer pu.Close()

	r := pu.Run(program.Sample())
	require.NoError(t, r.WaitReady(testContext(t)))
	require.Equal(t, result.StateReady, r.GetState())

	hitsBefore := l1.Watcher().Snapshot().Hit
	require.NoError(t, pu.Reset())

	// The store left its line cached; after Reset the same read misses.
	_, err = l1.Read(251)
	require.NoError(t, err)
	assert.Equal(t, hitsBefore, l1.Watcher().Snapshot().Hit)
}

func TestQueue_RunsInOrder(t *testing.T) {
	pu, _ := newTestPU(t)
	ctx := testContext(t)

	first := pu.StepIn(program.Sample())
	second := pu.Run(program.Sample())
	require.NoError(t, first.WaitForState(ctx, result.StateStepInMode))
	assert.Equal(t, result.StateWaiting, second.GetState())
	assert.Equal(t, 1, pu.Pending())

	first.Close()
	require.NoError(t, second.WaitReady(ctx))
	assert.Equal(t, result.StateInterrupted, first.GetState())
	assert.Equal(t, result.StateReady, second.GetState())
	assert.Equal(t, uint64(5), second.GetResultFrame().X[0])
}

func TestClose_TearsDownOutstandingResults(t *testing.T) {
	ram := memory.NewRandomAccessMemory(emu.KB(4))
	pu, err := New(ram, WithStackSize(256))
	require.NoError(t, err)
	ctx := testContext(t)

	stepping := pu.StepIn(program.Sample())
	queued := pu.Run(program.Sample())
	require.NoError(t, stepping.WaitForState(ctx, result.StateStepInMode))

	pu.Close()
	pu.Close()
	require.NoError(t, stepping.WaitReady(ctx))
	require.NoError(t, queued.WaitReady(ctx))
	assert.Equal(t, result.StateInterrupted, stepping.GetState())
	assert.Equal(t, result.StateInterrupted, queued.GetState())
	assert.ErrorIs(t, queued.Err(), ErrClosed)
	assert.Equal(t, uint64(2), pu.Watcher().ProcessesHandled())
	assert.Equal(t, uint64(2), pu.Watcher().ProcessesInterrupted())

	late := pu.Run(program.Sample())
	require.NoError(t, late.WaitReady(ctx))
	assert.ErrorIs(t, late.Err(), ErrClosed)
	assert.ErrorIs(t, pu.Reset(), ErrClosed)
}

func TestWatcher_NilSafe(t *testing.T) {
	var w *Watcher
	w.RecordInstruction(idec.ClassHints)
	w.RecordProcessHandled()
	w.Reset()
	assert.Zero(t, w.InstructionCount())
	assert.Zero(t, w.ClassCount(idec.ClassHints))
	assert.Equal(t, WatcherSnapshot{}, w.Snapshot())

	shared := NewWatcher()
	pu, _ := newTestPU(t, WithWatcher(shared))
	r := pu.Run(program.Sample())
	require.NoError(t, r.WaitReady(testContext(t)))
	assert.Same(t, shared, pu.Watcher())
	assert.Equal(t, uint64(3), shared.ClassCount(idec.ClassLoadStoreUnsignedImmediate))
	shared.Reset()
	assert.Zero(t, shared.InstructionCount())
}

package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armemu/internal/emu"
	"armemu/internal/memory"
	"armemu/internal/program"
	"armemu/internal/pu"
	"armemu/internal/result"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newController(t *testing.T, p program.Program) (*Controller, *bytes.Buffer, *result.ControlledResult) {
	t.Helper()
	unit, err := pu.New(memory.NewRandomAccessMemory(emu.KB(4)), pu.WithStackSize(256))
	require.NoError(t, err)
	t.Cleanup(unit.Close)

	cr := unit.StepIn(p)
	var out bytes.Buffer
	c := NewController(cr, &out)
	t.Cleanup(c.Close)
	return c, &out, cr
}

func TestRunString_StepsSample(t *testing.T) {
	c, out, cr := newController(t, program.Sample())

	err := c.RunString(testContext(t), `
		assert(pc() == 0)
		assert(step(2) == 2)
		assert(reg(0) == 5, "x0 after mov")
		print(state(), pc(), sp())
		local n = step(100)
		print(n, done(), regx(0), nzcv())
	`)
	require.NoError(t, err)
	assert.Equal(t, "StepInMode\t2\t239\n11\ttrue\t0x0000000000000005\tnZCv\n", out.String())
	assert.Equal(t, result.StateReady, cr.GetState())
}

func TestRunString_Errors(t *testing.T) {
	c, _, _ := newController(t, program.Sample())
	ctx := testContext(t)

	err := c.RunString(ctx, `error("boom")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	err = c.RunString(ctx, `reg(40)`)
	require.Error(t, err)

	err = c.RunString(ctx, `step(-1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestRunString_FaultSurfacesAsState(t *testing.T) {
	c, out, cr := newController(t, program.FromWords([]emu.DataUnit{0xd2800020, 0x00000000}, 0))

	require.NoError(t, c.RunString(testContext(t), `step(5) print(state(), reg(0))`))
	assert.Equal(t, "Interrupted\t1\n", out.String())
	assert.Error(t, cr.Err())
}

func TestRunString_Cancelled(t *testing.T) {
	c, _, _ := newController(t, program.Sample())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.RunString(ctx, `while true do end`))
}

func TestRunFile(t *testing.T) {
	c, out, _ := newController(t, program.Sample())
	path := filepath.Join(t.TempDir(), "steps.lua")
	require.NoError(t, os.WriteFile(path, []byte("while not done() do step() end\nprint(regx(0))\n"), 0o644))

	require.NoError(t, c.RunFile(testContext(t), path))
	assert.Equal(t, "0x0000000000000005\n", out.String())

	assert.Error(t, c.RunFile(testContext(t), filepath.Join(t.TempDir(), "missing.lua")))
}

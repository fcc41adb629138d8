// Package script drives a lock-step result from Lua.
//
// A script sees these globals:
//
//	step([n])  advance n instructions (default 1), returns the count taken
//	reg(i)     X register i as a number
//	regx(i)    X register i as a hex string
//	pc(), sp() program counter and stack pointer
//	nzcv()     condition flags, upper case when set
//	state()    result state name
//	done()     true once the program reached a terminal state
//	print(...) writes to the controller output
package script

import (
	"context"
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"armemu/internal/result"
)

// Controller binds one Lua state to one controlled result.
type Controller struct {
	L   *lua.LState
	cr  *result.ControlledResult
	out io.Writer
}

func NewController(cr *result.ControlledResult, out io.Writer) *Controller {
	if out == nil {
		out = io.Discard
	}
	c := &Controller{L: lua.NewState(), cr: cr, out: out}
	for name, fn := range map[string]lua.LGFunction{
		"step":  c.step,
		"reg":   c.reg,
		"regx":  c.regx,
		"pc":    c.pc,
		"sp":    c.sp,
		"nzcv":  c.nzcv,
		"state": c.state,
		"done":  c.done,
		"print": c.print,
	} {
		c.L.SetGlobal(name, c.L.NewFunction(fn))
	}
	return c
}

func (c *Controller) context() context.Context {
	if ctx := c.L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (c *Controller) step(L *lua.LState) int {
	n := L.OptInt(1, 1)
	if n < 0 {
		L.ArgError(1, "step count must not be negative")
	}
	done, err := c.cr.Steps(c.context(), n)
	if err != nil {
		L.RaiseError("step: %v", err)
	}
	L.Push(lua.LNumber(done))
	return 1
}

func (c *Controller) register(L *lua.LState) uint64 {
	v, err := c.cr.GetGPRegisterValue(L.CheckInt(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	return v
}

func (c *Controller) reg(L *lua.LState) int {
	L.Push(lua.LNumber(c.register(L)))
	return 1
}

func (c *Controller) regx(L *lua.LState) int {
	L.Push(lua.LString(fmt.Sprintf("0x%016x", c.register(L))))
	return 1
}

func (c *Controller) pc(L *lua.LState) int {
	L.Push(lua.LNumber(c.cr.GetPC()))
	return 1
}

func (c *Controller) sp(L *lua.LState) int {
	L.Push(lua.LNumber(c.cr.GetSP()))
	return 1
}

func (c *Controller) nzcv(L *lua.LState) int {
	L.Push(lua.LString(c.cr.GetResultFrame().Flags()))
	return 1
}

func (c *Controller) state(L *lua.LState) int {
	L.Push(lua.LString(c.cr.GetState().String()))
	return 1
}

func (c *Controller) done(L *lua.LState) int {
	L.Push(lua.LBool(c.cr.GetState().IsTerminal()))
	return 1
}

func (c *Controller) print(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(c.out, strings.Join(parts, "\t"))
	return 0
}

// RunString executes src. Blocking steps and the script itself stop when
// ctx ends.
func (c *Controller) RunString(ctx context.Context, src string) error {
	c.L.SetContext(ctx)
	defer c.L.RemoveContext()
	return c.L.DoString(src)
}

func (c *Controller) RunFile(ctx context.Context, path string) error {
	c.L.SetContext(ctx)
	defer c.L.RemoveContext()
	return c.L.DoFile(path)
}

// Close releases the Lua state. The controlled result is left as is.
func (c *Controller) Close() {
	c.L.Close()
}

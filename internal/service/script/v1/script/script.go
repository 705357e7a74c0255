// Package script implements an interpreter for the line-oriented train
// control language.
//
// Supported commands: speed <-100..100>, forward, reverse, toggle, horn,
// bell on|off, lights on|off, wait <seconds>, repeat <n> times / end,
// # comment. A negative speed forces reverse, the magnitude is a percentage
// scaled to the device throttle range.

package script

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1"
	scriptErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/script/v1/errors"
	"github.com/rs/zerolog"
)

const deviceMaxSpeed = 31

type command struct {
	name string
	args []string
	line int
}

// Runner defines attributes of a struct available to its methods.
type Runner struct {
	device  device.Controller
	log     *zerolog.Logger
	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// InitRunner initializes a script interpreter bound to a device controller.
func InitRunner(ctrl device.Controller, log *zerolog.Logger) (*Runner, error) {
	if ctrl == nil {
		return nil, &scriptErrors.ScriptFoundNilArgument{Msg: "nil device controller was passed to script initializer"}
	}
	if log == nil {
		return nil, &scriptErrors.ScriptFoundNilArgument{Msg: "nil logger was passed to script initializer"}
	}
	return &Runner{device: ctrl, log: log}, nil
}

// Validate parses the script and reports the first syntax error, if any.
func (r *Runner) Validate(script string) error {
	_, err := parse(script)
	return err
}

// Run validates and executes the script. Only one script may run at a time.
// Returns the number of parsed commands.
func (r *Runner) Run(ctx context.Context, script string) (int, error) {
	commands, err := parse(script)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return 0, &scriptErrors.AlreadyRunningError{}
	}
	r.running = true
	r.stop = make(chan struct{})
	stop := r.stop
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()
	r.log.Info().Msg(fmt.Sprintf("executing script with %d commands", len(commands)))
	err = r.execute(ctx, stop, commands, 0, len(commands))
	if err != nil {
		return 0, err
	}
	return len(commands), nil
}

// Stop aborts the currently running script, if any.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running && r.stop != nil {
		select {
		case <-r.stop:
		default:
			close(r.stop)
		}
	}
}

func (r *Runner) execute(ctx context.Context, stop chan struct{}, commands []command, start, end int) error {
	for i := start; i < end; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			r.log.Info().Msg("script execution stopped")
			return nil
		default:
		}
		cmd := commands[i]
		switch cmd.name {
		case "repeat":
			loopEnd := findLoopEnd(commands, i)
			times, _ := strconv.Atoi(cmd.args[0])
			for n := 0; n < times; n++ {
				if err := r.execute(ctx, stop, commands, i+1, loopEnd); err != nil {
					return err
				}
			}
			i = loopEnd
		case "end":
		default:
			if err := r.executeSingle(ctx, stop, cmd); err != nil {
				return &scriptErrors.ExecutionError{Line: cmd.line, Err: err}
			}
		}
	}
	return nil
}

func (r *Runner) executeSingle(ctx context.Context, stop chan struct{}, cmd command) error {
	switch cmd.name {
	case "speed":
		percent, _ := strconv.Atoi(cmd.args[0])
		if percent < 0 {
			if _, err := r.device.SetDirection(ctx, device.DirectionReverse); err != nil {
				return err
			}
			percent = -percent
		}
		return r.device.SetSpeed(ctx, percent*deviceMaxSpeed/100)
	case "forward":
		_, err := r.device.SetDirection(ctx, device.DirectionForward)
		return err
	case "reverse":
		_, err := r.device.SetDirection(ctx, device.DirectionReverse)
		return err
	case "toggle":
		_, err := r.device.SetDirection(ctx, device.DirectionToggle)
		return err
	case "horn":
		return r.device.Horn(ctx)
	case "bell":
		return r.device.Bell(ctx, strings.EqualFold(cmd.args[0], "on"))
	case "lights":
		return r.device.Lights(ctx, strings.EqualFold(cmd.args[0], "on"))
	case "wait":
		seconds, _ := strconv.ParseFloat(cmd.args[0], 64)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-time.After(time.Duration(seconds * float64(time.Second))):
			return nil
		}
	}
	return nil
}

func parse(script string) ([]command, error) {
	var commands []command
	for lineNum, raw := range strings.Split(script, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		cmd := command{name: strings.ToLower(parts[0]), args: parts[1:], line: lineNum + 1}
		if err := validateCommand(cmd); err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	if err := validateLoops(commands); err != nil {
		return nil, err
	}
	return commands, nil
}

func validateCommand(cmd command) error {
	argCounts := map[string]int{
		"speed":   1,
		"forward": 0,
		"reverse": 0,
		"toggle":  0,
		"horn":    0,
		"bell":    1,
		"lights":  1,
		"wait":    1,
		"repeat":  2,
		"end":     0,
	}
	expected, ok := argCounts[cmd.name]
	if !ok {
		return &scriptErrors.SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("unknown command %q", cmd.name)}
	}
	if len(cmd.args) != expected {
		return &scriptErrors.SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("command %q expects %d argument(s), got %d", cmd.name, expected, len(cmd.args))}
	}
	switch cmd.name {
	case "speed":
		speed, err := strconv.Atoi(cmd.args[0])
		if err != nil || speed < -100 || speed > 100 {
			return &scriptErrors.SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("speed must be an integer between -100 and 100, got %q", cmd.args[0])}
		}
	case "bell", "lights":
		state := strings.ToLower(cmd.args[0])
		if state != "on" && state != "off" {
			return &scriptErrors.SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("%s argument must be on or off, got %q", cmd.name, cmd.args[0])}
		}
	case "wait":
		seconds, err := strconv.ParseFloat(cmd.args[0], 64)
		if err != nil || seconds < 0 {
			return &scriptErrors.SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("wait time must be a non-negative number, got %q", cmd.args[0])}
		}
	case "repeat":
		times, err := strconv.Atoi(cmd.args[0])
		if err != nil || times < 1 {
			return &scriptErrors.SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("repeat count must be a positive integer, got %q", cmd.args[0])}
		}
		if !strings.EqualFold(cmd.args[1], "times") {
			return &scriptErrors.SyntaxError{Line: cmd.line, Msg: fmt.Sprintf("expected keyword times, got %q", cmd.args[1])}
		}
	}
	return nil
}

func validateLoops(commands []command) error {
	var stack []int
	for _, cmd := range commands {
		switch cmd.name {
		case "repeat":
			stack = append(stack, cmd.line)
		case "end":
			if len(stack) == 0 {
				return &scriptErrors.SyntaxError{Line: cmd.line, Msg: "end without matching repeat"}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return &scriptErrors.SyntaxError{Line: stack[len(stack)-1], Msg: "repeat without matching end"}
	}
	return nil
}

func findLoopEnd(commands []command, repeatIdx int) int {
	depth := 0
	for i := repeatIdx; i < len(commands); i++ {
		switch commands[i].name {
		case "repeat":
			depth++
		case "end":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(commands)
}

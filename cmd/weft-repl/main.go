// weft-repl is an interactive demo shell for the weft engine: it drives
// a buffer registry from a command loop, exercising edits, narrowing,
// text properties, markers, and buffer lifecycle.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/phroun/weft"
)

// CLI defines the command-line interface for weft-repl.
var CLI struct {
	Mode      string `name:"mode" help:"Major mode hook applied to new buffers." default:"fundamental"`
	Threshold int    `name:"balance-threshold" help:"Interval tree rebalance threshold (percent)." default:"20"`
	Trace     bool   `name:"trace" help:"Print hook invocations."`
}

// traceEvaluator prints hook activity so the change protocol is visible.
type traceEvaluator struct {
	trace   bool
	symbols map[string]any
}

func (e *traceEvaluator) RunHook(name string) {
	if e.trace {
		fmt.Printf("  [hook] %s\n", name)
	}
}

func (e *traceEvaluator) ResolveVariable(name string) any {
	return e.symbols[name]
}

func (e *traceEvaluator) StoreVariable(name string, value any) {
	e.symbols[name] = value
}

func (e *traceEvaluator) SelectOtherBuffer(excluding *weft.Buffer) *weft.Buffer {
	return nil
}

// REPL holds the state of the interactive session.
type REPL struct {
	registry *weft.Registry
	reader   *bufio.Reader
	prompt   string
}

func main() {
	kong.Parse(&CLI,
		kong.Name("weft-repl"),
		kong.Description("Interactive demo shell for the weft text-storage engine."))

	eval := &traceEvaluator{trace: CLI.Trace, symbols: make(map[string]any)}
	repl := &REPL{
		registry: weft.NewRegistry(weft.RegistryOptions{
			Evaluator:        eval,
			InitialMode:      CLI.Mode,
			BalanceThreshold: CLI.Threshold,
		}),
		reader: bufio.NewReader(os.Stdin),
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		repl.prompt = "weft> "
		fmt.Println("weft REPL - type 'help' for commands, 'quit' to exit")
	}

	repl.registry.SelectBuffer(repl.registry.GetBufferCreate("*scratch*").Name())

	for {
		fmt.Print(repl.prompt)
		line, err := repl.reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := repl.dispatch(line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (r *REPL) dispatch(line string) error {
	parts := strings.SplitN(line, " ", 2)
	cmd := parts[0]
	rest := ""
	if len(parts) > 1 {
		rest = parts[1]
	}
	cur := r.registry.Current()
	switch cmd {
	case "help", "list", "create", "switch":
	default:
		if cur == nil {
			return fmt.Errorf("no current buffer")
		}
	}

	switch cmd {
	case "help":
		r.printHelp()
	case "list":
		for _, b := range r.registry.BufferList() {
			mark := " "
			if b == cur {
				mark = "*"
			}
			fmt.Printf("%s %-20s %5d chars  modified=%v\n", mark, b.Name(), b.PointMax()-b.PointMin(), b.Modified())
		}
	case "create":
		b := r.registry.GetBufferCreate(rest)
		fmt.Printf("buffer %q\n", b.Name())
	case "switch":
		if _, err := r.registry.SelectBuffer(rest); err != nil {
			return err
		}
	case "kill":
		name := rest
		if !r.registry.KillBuffer(name) {
			fmt.Println("refused")
		}
	case "rename":
		got, err := r.registry.RenameBuffer(cur, rest, true)
		if err != nil {
			return err
		}
		fmt.Printf("now %q\n", got)
	case "show":
		fmt.Println(cur.String())
	case "point":
		fmt.Printf("point=%d min=%d max=%d col=%d\n", cur.Point(), cur.PointMin(), cur.PointMax(), cur.CurrentColumn())
	case "goto":
		pos, err := strconv.Atoi(rest)
		if err != nil {
			return err
		}
		cur.SetPoint(pos)
	case "insert":
		return cur.InsertAtPoint(rest)
	case "delete":
		start, end, err := parseRange(rest)
		if err != nil {
			return err
		}
		return cur.Delete(start, end)
	case "erase":
		return cur.Erase()
	case "narrow":
		start, end, err := parseRange(rest)
		if err != nil {
			return err
		}
		return cur.Narrow(start, end)
	case "widen":
		cur.Widen()
	case "propadd":
		return r.propCommand(rest, func(start, end int, pairs []any) (bool, error) {
			return cur.AddTextProperties(start, end, pairs...)
		})
	case "propset":
		return r.propCommand(rest, func(start, end int, pairs []any) (bool, error) {
			return cur.SetTextProperties(start, end, pairs...)
		})
	case "proprm":
		return r.propCommand(rest, func(start, end int, pairs []any) (bool, error) {
			return cur.RemoveTextProperties(start, end, pairs...)
		})
	case "props":
		pos, err := strconv.Atoi(rest)
		if err != nil {
			return err
		}
		pl, err := cur.TextPropertiesAt(pos)
		if err != nil {
			return err
		}
		for _, p := range pl {
			fmt.Printf("%s = %v\n", p.Name, p.Value)
		}
	case "boundary":
		pos, err := strconv.Atoi(rest)
		if err != nil {
			return err
		}
		at, ok, err := cur.NextPropertyChange(pos)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("none")
		} else {
			fmt.Println(at)
		}
	case "locals":
		for _, v := range cur.LocalVariables() {
			fmt.Printf("%s = %v\n", v.Symbol, v.Value)
		}
	default:
		fmt.Printf("unknown command %q (try 'help')\n", cmd)
	}
	return nil
}

// propCommand parses "START END name value [name value ...]" and applies op.
func (r *REPL) propCommand(rest string, op func(start, end int, pairs []any) (bool, error)) error {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return fmt.Errorf("usage: START END [name value ...]")
	}
	start, err := strconv.Atoi(fields[0])
	if err != nil {
		return err
	}
	end, err := strconv.Atoi(fields[1])
	if err != nil {
		return err
	}
	pairs := make([]any, 0, len(fields)-2)
	for _, f := range fields[2:] {
		pairs = append(pairs, any(f))
	}
	changed, err := op(start, end, pairs)
	if err != nil {
		return err
	}
	fmt.Printf("changed=%v\n", changed)
	return nil
}

func parseRange(rest string) (int, int, error) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("usage: START END")
	}
	start, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (r *REPL) printHelp() {
	fmt.Print(`Commands:
  list                         list buffers (recency order)
  create NAME                  get-or-create a buffer
  switch NAME                  select a buffer
  kill NAME                    kill a buffer
  rename NAME                  rename current buffer (unique)
  show                         print current buffer text
  point / goto POS             show or move point
  insert TEXT                  insert at point
  delete START END             delete a range
  erase                        erase the buffer
  narrow START END / widen     restrict or restore the visible region
  propadd START END N V ...    add text properties
  propset START END N V ...    set text properties
  proprm START END N V ...     remove text properties
  props POS                    show properties at POS
  boundary POS                 next property change after POS
  locals                       list buffer-local variables
  quit                         exit
`)
}

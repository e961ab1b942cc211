// Package console provides the interactive command-line interface for
// traintastic-console.
package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/traintastic/traintastic-go/pkg/mirror"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// Console handles interactive mode for traintastic-console.
type Console struct {
	client  *mirror.Client
	rl      *readline.Instance
	objects map[string]*mirror.MirrorObject
	tables  map[string]*mirror.MirrorTableModel
}

// New creates a new interactive console over an already logged-in client.
func New(client *mirror.Client) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "traintastic> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		client:  client,
		rl:      rl,
		objects: make(map[string]*mirror.MirrorObject),
		tables:  make(map[string]*mirror.MirrorTableModel),
	}, nil
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()
		case "get":
			c.cmdGet(args)
		case "prop":
			c.cmdProp(args)
		case "set":
			c.cmdSet(args)
		case "release":
			c.cmdRelease(args)
		case "table":
			c.cmdTable(args)
		case "viewport":
			c.cmdViewport(args)
		case "ping":
			c.cmdPing()
		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Traintastic Console Commands:
  get <object-id>                      - fetch an object and mirror it locally
  prop <object-id> <name>              - print a mirrored property's value
  set <object-id> <name> <type> <val>  - set a property (type: bool|int|float|string)
  release <object-id>                  - release a mirrored object's handle
  table <object-id>                    - fetch a table model and mirror it locally
  viewport <object-id> <c0> <c1> <r0> <r1> - request a table model region
  ping                                  - round-trip a keep-alive
  help                                   - show this help
  quit                                   - exit the console`)
}

func (c *Console) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: get <object-id>")
		return
	}
	obj, err := c.client.GetObject(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "GetObject failed: %v\n", err)
		return
	}
	c.objects[args[0]] = obj
	fmt.Fprintf(c.rl.Stdout(), "handle=%d class=%s properties=%v\n", obj.Handle(), obj.ClassID(), obj.PropertyNames())
}

func (c *Console) cmdProp(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: prop <object-id> <name>")
		return
	}
	obj, ok := c.objects[args[0]]
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "unknown object %q (use 'get' first)\n", args[0])
		return
	}
	prop, ok := obj.Property(args[1])
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "%s has no property %q\n", args[0], args[1])
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "%s = %v\n", args[1], prop.Value())
}

func (c *Console) cmdSet(args []string) {
	if len(args) != 4 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: set <object-id> <name> <type> <value>")
		return
	}
	obj, ok := c.objects[args[0]]
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "unknown object %q (use 'get' first)\n", args[0])
		return
	}

	typ, value, err := parseTypedValue(args[2], args[3])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "invalid value: %v\n", err)
		return
	}

	if err := c.client.SetProperty(obj.Handle(), args[1], typ, value); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "SetProperty failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

func (c *Console) cmdRelease(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: release <object-id>")
		return
	}
	obj, ok := c.objects[args[0]]
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "unknown object %q\n", args[0])
		return
	}
	if err := c.client.ReleaseObject(obj.Handle()); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "ReleaseObject failed: %v\n", err)
		return
	}
	delete(c.objects, args[0])
	fmt.Fprintln(c.rl.Stdout(), "released")
}

func (c *Console) cmdTable(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: table <object-id>")
		return
	}
	tm, err := c.client.GetTableModel(args[0], nil)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "GetTableModel failed: %v\n", err)
		return
	}
	c.tables[args[0]] = tm
	fmt.Fprintf(c.rl.Stdout(), "handle=%d rows=%d columns=%v\n", tm.Handle(), tm.RowCount(), tm.ColumnHeaders())
}

func (c *Console) cmdViewport(args []string) {
	if len(args) != 5 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: viewport <object-id> <c0> <c1> <r0> <r1>")
		return
	}
	tm, ok := c.tables[args[0]]
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "unknown table %q (use 'table' first)\n", args[0])
		return
	}
	bounds := make([]int, 4)
	for i, s := range args[1:] {
		n, err := strconv.Atoi(s)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "invalid bound %q: %v\n", s, err)
			return
		}
		bounds[i] = n
	}
	tm.SetViewport(bounds[0], bounds[1], bounds[2], bounds[3])
	fmt.Fprintln(c.rl.Stdout(), "viewport requested")
}

func (c *Console) cmdPing() {
	if err := c.client.Ping(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "ping failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "pong")
}

func parseTypedValue(typeName, raw string) (wire.PropertyType, any, error) {
	switch strings.ToLower(typeName) {
	case "bool", "boolean":
		v, err := strconv.ParseBool(raw)
		return wire.PropertyTypeBoolean, v, err
	case "int", "integer":
		v, err := strconv.ParseInt(raw, 10, 64)
		return wire.PropertyTypeInteger, v, err
	case "float":
		v, err := strconv.ParseFloat(raw, 64)
		return wire.PropertyTypeFloat, v, err
	case "string":
		return wire.PropertyTypeString, raw, nil
	default:
		return 0, nil, fmt.Errorf("unknown type %q (want bool, int, float, or string)", typeName)
	}
}

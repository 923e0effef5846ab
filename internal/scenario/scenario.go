// Package scenario holds the iteration bodies a run can execute.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"loginload/internal/check"
	"loginload/internal/credentials"
	"loginload/internal/loginreq"
)

const (
	RandomLogin  = "random-login"
	CheckedLogin = "checked-login"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is one iteration body. Iterate is called once per iteration per VU; its
// error is recorded by the runtime and otherwise ignored.
type Scenario interface {
	Name() string
	Iterate(ctx context.Context) error
}

// Deps is what a scenario needs from the runtime.
type Deps struct {
	Client  loginreq.Doer
	Target  string
	Source  credentials.Source
	Table   *credentials.Table // overrides the scenario's built-in table when set
	Checks  check.Recorder
	Console *zap.Logger
}

type factory struct {
	description string
	table       *credentials.Table
	build       func(sel *credentials.Selector, inv *loginreq.Invoker, d Deps) Scenario
}

var registry = map[string]factory{
	RandomLogin: {
		description: "POST a random credential to the login endpoint, response ignored",
		table:       credentials.RandomLoginTable,
		build: func(sel *credentials.Selector, inv *loginreq.Invoker, _ Deps) Scenario {
			return &randomLogin{selector: sel, invoker: inv}
		},
	},
	CheckedLogin: {
		description: "log the random credential, POST it and check the response is 200",
		table:       credentials.CheckedLoginTable,
		build: func(sel *credentials.Selector, inv *loginreq.Invoker, d Deps) Scenario {
			return &checkedLogin{selector: sel, invoker: inv, checks: d.Checks, console: d.Console}
		},
	},
}

// New builds the named scenario.
func New(name string, d Deps) (Scenario, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownScenario, name, Names())
	}

	table := f.table
	if d.Table != nil {
		table = d.Table
	}
	if d.Console == nil {
		d.Console = zap.NewNop()
	}

	sel := credentials.NewSelector(table, d.Source)
	inv := loginreq.NewInvoker(d.Client, d.Target)
	return f.build(sel, inv, d), nil
}

// Known reports whether name is a registered scenario.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Info describes a registered scenario.
type Info struct {
	Name        string
	Description string
	Table       *credentials.Table
}

func List() []Info {
	out := make([]Info, 0, len(registry))
	for name, f := range registry {
		out = append(out, Info{Name: name, Description: f.description, Table: f.table})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for _, info := range List() {
		names = append(names, info.Name)
	}
	return names
}

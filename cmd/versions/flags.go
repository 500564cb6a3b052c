package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// enumValue is a string flag restricted to a fixed set of values.
type enumValue struct {
	value   string
	allowed []string
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(v string) error {
	if !slices.Contains(e.allowed, v) {
		return fmt.Errorf("must be one of %s", strings.Join(e.allowed, ", "))
	}
	e.value = v
	return nil
}

func (e *enumValue) Type() string { return "enum" }

// enumVar registers an enum flag. The default comes from the environment in most
// cases, so it is only validated when the flag is read.
func enumVar(flags *pflag.FlagSet, name, def string, allowed []string, usage string) {
	flags.Var(&enumValue{value: def, allowed: allowed}, name, usage)
}

func enumGet(flags *pflag.FlagSet, name string) (string, error) {
	flag := flags.Lookup(name)
	if flag == nil {
		return "", fmt.Errorf("flag %q not defined", name)
	}

	e, ok := flag.Value.(*enumValue)
	if !ok {
		return "", fmt.Errorf("flag %q is not an enum", name)
	}
	if !slices.Contains(e.allowed, e.value) {
		return "", fmt.Errorf("invalid value %q for --%s: must be one of %s", e.value, name, strings.Join(e.allowed, ", "))
	}
	return e.value, nil
}

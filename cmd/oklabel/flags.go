package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// -- output format Value
type formatValue struct {
	value   *string
	choices []string
}

// newFormatValue returns a flag value accepting one of `choices`.
func newFormatValue(def string, p *string, choices ...string) pflag.Value {
	*p = def
	return &formatValue{value: p, choices: choices}
}

func (f *formatValue) Set(val string) error {
	val = strings.ToLower(val)
	for _, c := range f.choices {
		if c == val {
			*f.value = val
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(f.choices, ", "))
}

func (f *formatValue) Type() string { return "format" }

func (f *formatValue) String() string {
	if f.value == nil {
		return ""
	}
	return *f.value
}

package cli

import (
	"flag"
	"fmt"
	"strconv"
	"time"
)

// Optional records a flag value and whether the flag was given.
type Optional[T any] struct {
	value  T
	set    bool
	parse  func(string) (T, error)
	format func(T) string
	isBool bool
}

func (o *Optional[T]) Set(s string) error {
	v, err := o.parse(s)
	if err != nil {
		return err
	}
	o.value = v
	o.set = true
	return nil
}

func (o *Optional[T]) String() string {
	if o == nil || !o.set {
		return ""
	}
	return o.format(o.value)
}

// IsBoolFlag lets "-ui" be given without a value.
func (o *Optional[T]) IsBoolFlag() bool {
	return o.isBool
}

// Value returns the parsed value and whether the flag was set.
func (o *Optional[T]) Value() (T, bool) {
	return o.value, o.set
}

// Ptr returns a pointer to the value, or nil when the flag was not set.
func (o *Optional[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// OptionalDuration records a duration flag and whether it was set.
type OptionalDuration = Optional[time.Duration]

// OptionalInt records an int flag and whether it was set.
type OptionalInt = Optional[int]

// OptionalString records a string flag and whether it was set.
type OptionalString = Optional[string]

// OptionalBool records a bool flag and whether it was set.
type OptionalBool = Optional[bool]

func NewOptionalDuration() *OptionalDuration {
	return &Optional[time.Duration]{parse: time.ParseDuration, format: time.Duration.String}
}

func NewOptionalInt() *OptionalInt {
	return &Optional[int]{parse: strconv.Atoi, format: strconv.Itoa}
}

func NewOptionalString() *OptionalString {
	return &Optional[string]{
		parse:  func(s string) (string, error) { return s, nil },
		format: func(s string) string { return s },
	}
}

func NewOptionalBool() *OptionalBool {
	return &Optional[bool]{parse: strconv.ParseBool, format: strconv.FormatBool, isBool: true}
}

// Var registers o under every name in names on fs.
func Var(fs *flag.FlagSet, o flag.Value, usage string, names ...string) {
	for _, name := range names {
		fs.Var(o, name, usage)
	}
}

// Usage prints a usage line followed by the flag defaults.
func Usage(fs *flag.FlagSet, program string) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "usage: %s [options]\n\n", program)
		fmt.Fprintln(fs.Output(), "Options:")
		fs.PrintDefaults()
	}
}

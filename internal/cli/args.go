// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Small flag/positional scanner used by the per-command parsers.

package cli

import (
	"strconv"
	"strings"
)

// ArgParser splits a raw argument list into flags and positionals.
//
// Supported forms: --flag value, --flag=value, bare boolean flags, and
// positional arguments. Unknown flags are kept as boolean flags so each
// command decides what it honors.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// boolFlagNames are flags that never consume a value.
var boolFlagNames = map[string]bool{
	"--json":    true,
	"--quiet":   true,
	"-q":        true,
	"--verbose": true,
	"-v":        true,
	"--plain":   true,
	"--help":    true,
	"-h":        true,
}

// NewArgParser scans args once and indexes them for lookup.
func NewArgParser(args []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if !strings.HasPrefix(arg, "-") {
			p.positional = append(p.positional, arg)
			continue
		}

		// --flag=value form
		if name, value, found := strings.Cut(arg, "="); found {
			p.flags[name] = value
			continue
		}

		if boolFlagNames[arg] {
			p.boolFlags[arg] = true
			continue
		}

		// --flag value form; a flag at the end of the line is boolean
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			p.flags[arg] = args[i+1]
			i++
		} else {
			p.boolFlags[arg] = true
		}
	}

	return p
}

// Flag returns the value of a flag and whether it was present.
func (p *ArgParser) Flag(name string) (string, bool) {
	v, ok := p.flags[name]
	return v, ok
}

// FlagOrDefault returns the flag value or def when absent.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return def
}

// FlagInt returns the flag parsed as an int, or def when absent or invalid.
func (p *ArgParser) FlagInt(name string, def int) int {
	v, ok := p.flags[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// BoolFlag reports whether a boolean flag was present.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[name]
}

// HasFlag reports whether the flag was present in either form.
func (p *ArgParser) HasFlag(name string) bool {
	if _, ok := p.flags[name]; ok {
		return true
	}
	return p.boolFlags[name]
}

// Positional returns the n-th positional argument or "".
func (p *ArgParser) Positional(n int) string {
	if n < 0 || n >= len(p.positional) {
		return ""
	}
	return p.positional[n]
}

// PositionalFrom joins the positional arguments from index n onward.
func (p *ArgParser) PositionalFrom(n int) string {
	if n < 0 || n >= len(p.positional) {
		return ""
	}
	return strings.Join(p.positional[n:], " ")
}

// Subcommand returns the first positional argument.
func (p *ArgParser) Subcommand() string {
	return p.Positional(0)
}

// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtag

import (
	"path"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
)

// A Command is a parsed benchmark command line.
type Command struct {
	// Binary is the first word of the command line.
	Binary string

	// Args maps flag names, without leading dashes, to their values.
	// A flag followed by another flag or by nothing has value "".
	Args map[string]string

	// Positional holds the remaining words, in order.
	Positional []string

	// Line is the original command line.
	Line string
}

// ParseCommand splits a shell command line into a Command. Quoting
// follows POSIX shell rules. Flags may be written "-f value",
// "--f value", "-f=value" or "--f=value".
func ParseCommand(line string) (Command, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return Command{}, errors.Wrapf(err, "splitting command %q", line)
	}
	if len(words) == 0 {
		return Command{}, &DecodeError{Field: "command", Input: line, Msg: "empty command"}
	}
	cmd := Command{Binary: words[0], Args: make(map[string]string), Line: line}
	for i := 1; i < len(words); i++ {
		w := words[i]
		if !isFlag(w) {
			cmd.Positional = append(cmd.Positional, w)
			continue
		}
		name := strings.TrimLeft(w, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			cmd.Args[name[:eq]] = name[eq+1:]
			continue
		}
		val := ""
		if i+1 < len(words) && !isFlag(words[i+1]) {
			val = words[i+1]
			i++
		}
		cmd.Args[name] = val
	}
	return cmd, nil
}

// isFlag reports whether w looks like a flag rather than a value.
// Negative numbers are values.
func isFlag(w string) bool {
	if len(w) < 2 || w[0] != '-' {
		return false
	}
	c := strings.TrimLeft(w, "-")
	if c == "" {
		return false
	}
	return !(c[0] >= '0' && c[0] <= '9' || c[0] == '.')
}

// Arg returns the value of flag name and whether it was present.
func (c Command) Arg(name string) (string, bool) {
	v, ok := c.Args[name]
	return v, ok
}

// Stem returns the base name of a path with its final extension
// removed, so "datasets/GAP/GAP-road.bmtx" becomes "GAP-road".
// Both slash and backslash separators are accepted.
func Stem(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

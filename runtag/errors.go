// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtag

import "fmt"

// A DecodeError reports a naming string that does not match any
// recognized convention.
type DecodeError struct {
	Field string // "tag", "config name", "file name", ...
	Input string
	Msg   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s %q: %s", e.Field, e.Input, e.Msg)
}

// A MissingArgumentError reports that a command line lacks an
// argument its implementation requires, such as the input file flag.
type MissingArgumentError struct {
	Arg     string // flag name, or "#1" for a positional argument
	Command string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("command %q: missing required argument %s", e.Command, e.Arg)
}

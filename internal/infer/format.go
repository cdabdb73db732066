package infer

import (
	"strconv"
	"strings"
)

// placeholder is one {...} hole of a format string.
type placeholder struct {
	name  string // inline argument name, empty for positional holes
	index int    // explicit position, or -1
	debug bool   // {:?} and {:#?}
}

// placeholders parses the holes of a Rust-style format string. Escaped
// braces ({{ and }}) are skipped.
func placeholders(format string) []placeholder {
	var out []placeholder
	for i := 0; i < len(format); i++ {
		if format[i] != '{' {
			continue
		}
		if i+1 < len(format) && format[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			break
		}
		hole := format[i+1 : i+end]
		i += end

		ph := placeholder{index: -1}
		arg, spec, _ := strings.Cut(hole, ":")
		ph.debug = strings.HasSuffix(spec, "?")
		if arg != "" {
			if n, err := strconv.Atoi(arg); err == nil {
				ph.index = n
			} else {
				ph.name = arg
			}
		}
		out = append(out, ph)
	}
	return out
}

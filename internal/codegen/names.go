package codegen

// rustKeywords holds the Rust keywords, strict and reserved, that are
// valid WJ identifiers.
var rustKeywords = map[string]bool{
	"abstract": true,
	"become":   true,
	"box":      true,
	"crate":    true,
	"do":       true,
	"extern":   true,
	"final":    true,
	"gen":      true,
	"macro":    true,
	"mod":      true,
	"move":     true,
	"override": true,
	"priv":     true,
	"ref":      true,
	"super":    true,
	"try":      true,
	"typeof":   true,
	"unsafe":   true,
	"unsized":  true,
	"virtual":  true,
	"yield":    true,
}

// ident returns the Rust spelling of a WJ identifier. Identifiers that
// collide with Rust keywords get a trailing underscore; the mapping is
// recorded in the output's rename table.
func (g *generator) ident(name string) string {
	if !rustKeywords[name] {
		return name
	}
	out := name + "_"
	g.renames[name] = out
	return out
}

package stdlib

// RecvMode is how a builtin method uses its receiver.
type RecvMode uint8

const (
	RecvShared    RecvMode = iota // &self
	RecvExclusive                 // &mut self
	RecvOwned                     // self
)

func (m RecvMode) String() string {
	switch m {
	case RecvExclusive:
		return "&mut self"
	case RecvOwned:
		return "self"
	}
	return "&self"
}

// Method describes a method of the builtin strings, vectors, maps and
// options. Rust and JS are templates over $recv and $0, $1, ...; an empty
// template means the call is emitted unchanged.
type Method struct {
	Name   string
	Recv   RecvMode
	Rust   string
	JS     string
	Result string // "int", "bool", "string", "elem", "self" or ""
	Owns   bool   // arguments are stored into the receiver
}

var methods = map[string]*Method{}

func method(m *Method) {
	methods[m.Name] = m
}

func init() {
	for _, m := range []*Method{
		// Mutating.
		{Name: "push", Recv: RecvExclusive, Owns: true},
		{Name: "push_str", Recv: RecvExclusive, Rust: "$recv.push_str(&$0)", JS: "$recv += $0"},
		{Name: "push_back", Recv: RecvExclusive, Owns: true, JS: "$recv.push($0)"},
		{Name: "push_front", Recv: RecvExclusive, Owns: true, JS: "$recv.unshift($0)"},
		{Name: "insert", Recv: RecvExclusive, Owns: true, JS: "$recv.set($0, $1)"},
		{Name: "remove", Recv: RecvExclusive, JS: "$recv.splice($0, 1)[0]"},
		{Name: "pop", Recv: RecvExclusive},
		{Name: "pop_back", Recv: RecvExclusive, JS: "$recv.pop()"},
		{Name: "pop_front", Recv: RecvExclusive, JS: "$recv.shift()"},
		{Name: "clear", Recv: RecvExclusive, JS: "$recv.length = 0"},
		{Name: "extend", Recv: RecvExclusive, Owns: true, JS: "$recv.push(...$0)"},
		{Name: "append", Recv: RecvExclusive, Rust: "$recv.append(&mut $0)", JS: "$recv.push(...$0.splice(0))"},
		{Name: "sort", Recv: RecvExclusive, JS: "$recv.sort((a, b) => (a < b ? -1 : a > b ? 1 : 0))"},
		{Name: "sort_by", Recv: RecvExclusive, JS: "$recv.sort($0)"},
		{Name: "sort_unstable", Recv: RecvExclusive, JS: "$recv.sort()"},
		{Name: "dedup", Recv: RecvExclusive, JS: "$recv.splice(0, $recv.length, ...new Set($recv))"},
		{Name: "reverse", Recv: RecvExclusive},
		{Name: "truncate", Recv: RecvExclusive, Rust: "$recv.truncate($0 as usize)", JS: "$recv.length = Math.min($recv.length, $0)"},
		{Name: "retain", Recv: RecvExclusive, JS: "$recv.splice(0, $recv.length, ...$recv.filter($0))"},
		{Name: "drain", Recv: RecvExclusive, JS: "$recv.splice(0)"},
		{Name: "swap", Recv: RecvExclusive, Rust: "$recv.swap($0 as usize, $1 as usize)", JS: "[$recv[$0], $recv[$1]] = [$recv[$1], $recv[$0]]"},
		{Name: "get_mut", Recv: RecvExclusive, JS: "$recv.get($0)"},
		{Name: "iter_mut", Recv: RecvExclusive, JS: "$recv"},
		{Name: "entry", Recv: RecvExclusive},
		{Name: "resize", Recv: RecvExclusive, Rust: "$recv.resize($0 as usize, $1)", JS: "$recv.length = $0"},
		{Name: "fill", Recv: RecvExclusive},

		// Consuming.
		{Name: "into_iter", Recv: RecvOwned, JS: "$recv"},
		{Name: "unwrap", Recv: RecvOwned, JS: "$recv"},
		{Name: "expect", Recv: RecvOwned, Rust: "$recv.expect(&$0)", JS: "$recv"},
		{Name: "unwrap_or", Recv: RecvOwned, JS: "($recv ?? $0)"},
		{Name: "unwrap_or_default", Recv: RecvOwned},
		{Name: "into_bytes", Recv: RecvOwned},
		{Name: "into_keys", Recv: RecvOwned, JS: "[...$recv.keys()]"},
		{Name: "into_values", Recv: RecvOwned, JS: "[...$recv.values()]"},

		// Reading.
		{Name: "len", Recv: RecvShared, JS: "$recv.length", Result: "int"},
		{Name: "is_empty", Recv: RecvShared, JS: "($recv.length === 0)", Result: "bool"},
		{Name: "contains", Recv: RecvShared, Rust: "$recv.contains(&$0)", JS: "$recv.includes($0)", Result: "bool"},
		{Name: "contains_key", Recv: RecvShared, Rust: "$recv.contains_key(&$0)", JS: "$recv.has($0)", Result: "bool"},
		{Name: "get", Recv: RecvShared, Rust: "$recv.get(&$0)", JS: "$recv.get($0)"},
		{Name: "first", Recv: RecvShared, JS: "$recv[0]"},
		{Name: "last", Recv: RecvShared, JS: "$recv[$recv.length - 1]"},
		{Name: "iter", Recv: RecvShared, JS: "$recv"},
		{Name: "keys", Recv: RecvShared, JS: "[...$recv.keys()]"},
		{Name: "values", Recv: RecvShared, JS: "[...$recv.values()]"},
		{Name: "clone", Recv: RecvShared, JS: "structuredClone($recv)", Result: "self"},
		{Name: "to_string", Recv: RecvShared, JS: "String($recv)", Result: "string"},
		{Name: "to_uppercase", Recv: RecvShared, JS: "$recv.toUpperCase()", Result: "string"},
		{Name: "to_lowercase", Recv: RecvShared, JS: "$recv.toLowerCase()", Result: "string"},
		{Name: "trim", Recv: RecvShared, Rust: "$recv.trim().to_string()", JS: "$recv.trim()", Result: "string"},
		{Name: "starts_with", Recv: RecvShared, Rust: "$recv.starts_with(&*$0)", JS: "$recv.startsWith($0)", Result: "bool"},
		{Name: "ends_with", Recv: RecvShared, Rust: "$recv.ends_with(&*$0)", JS: "$recv.endsWith($0)", Result: "bool"},
		{Name: "split", Recv: RecvShared, Rust: "$recv.split(&*$0).map(|s| s.to_string()).collect::<Vec<String>>()", JS: "$recv.split($0)", Result: "[string]"},
		{Name: "chars", Recv: RecvShared, JS: "[...$recv]"},
		{Name: "is_some", Recv: RecvShared, JS: "($recv !== null && $recv !== undefined)", Result: "bool"},
		{Name: "is_none", Recv: RecvShared, JS: "($recv === null || $recv === undefined)", Result: "bool"},
		{Name: "is_ok", Recv: RecvShared, Result: "bool"},
		{Name: "is_err", Recv: RecvShared, Result: "bool"},
		{Name: "abs", Recv: RecvShared, JS: "Math.abs($recv)", Result: "self"},
		{Name: "sqrt", Recv: RecvShared, JS: "Math.sqrt($recv)", Result: "float"},
		{Name: "map", Recv: RecvShared},
		{Name: "filter", Recv: RecvShared},
		{Name: "collect", Recv: RecvOwned, JS: "$recv"},
		{Name: "sum", Recv: RecvOwned, Rust: "$recv.sum::<i64>()", JS: "$recv.reduce((a, b) => a + b, 0)", Result: "int"},
		{Name: "count", Recv: RecvOwned, Rust: "($recv.count() as i64)", JS: "$recv.length", Result: "int"},
		{Name: "join", Recv: RecvShared, Rust: "$recv.join(&*$0)", Result: "string"},
		{Name: "max", Recv: RecvShared},
		{Name: "min", Recv: RecvShared},
		{Name: "cmp", Recv: RecvShared},
		{Name: "eq", Recv: RecvShared, Result: "bool"},
	} {
		method(m)
	}
}

// LookupMethod returns the builtin method with the given name.
func LookupMethod(name string) (*Method, bool) {
	m, ok := methods[name]
	return m, ok
}

// MethodRecv returns the receiver mode of a builtin method. Unknown
// methods are assumed to borrow their receiver.
func MethodRecv(name string) RecvMode {
	if m, ok := methods[name]; ok {
		return m.Recv
	}
	return RecvShared
}

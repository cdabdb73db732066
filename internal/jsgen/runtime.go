package jsgen

// Runtime helpers emitted ahead of the module body when the generated
// code uses them.
const (
	helperErr   = "err"
	helperTry   = "try"
	helperEq    = "eq"
	helperRange = "range"
)

var helperCode = map[string]string{
	helperErr: `class __WjErr {
  constructor(error) {
    this.error = error;
  }
}`,
	helperTry: `function __wj_try(v) {
  if (v instanceof __WjErr) throw v;
  return v;
}`,
	helperEq: `function __wj_eq(a, b) {
  if (a === b) return true;
  if (a === null || b === null || typeof a !== "object" || typeof b !== "object") return false;
  if (Array.isArray(a)) {
    if (!Array.isArray(b) || a.length !== b.length) return false;
    for (let i = 0; i < a.length; i++) if (!__wj_eq(a[i], b[i])) return false;
    return true;
  }
  if (a.constructor !== b.constructor) return false;
  const ka = Object.keys(a);
  if (ka.length !== Object.keys(b).length) return false;
  for (const k of ka) if (!__wj_eq(a[k], b[k])) return false;
  return true;
}`,
	helperRange: `function __wj_range(lo, hi) {
  const out = [];
  for (let i = lo; i < hi; i++) out.push(i);
  return out;
}`,
}

// helperDeps lists helpers that require another helper.
var helperDeps = map[string][]string{
	helperTry: {helperErr},
}

// chunkLoader is the runtime that loads split chunks on demand.
const chunkLoader = `const __wj_chunks = {};
const __wj_loaded = new Set();

async function __wj_load_chunk(name) {
  if (__wj_loaded.has(name)) {
    return __wj_chunks[name];
  }
  try {
    const module = await import(` + "`./${name}.js`" + `);
    __wj_chunks[name] = module;
    __wj_loaded.add(name);
    return module;
  } catch (e) {
    console.error(` + "`Failed to load chunk: ${name}`" + `, e);
    throw e;
  }
}`

// runtime returns the helper code used by the generated module, or ""
// when none is needed. Output is in a fixed order.
func (g *generator) runtime() string {
	for h := range g.helpers {
		for _, dep := range helperDeps[h] {
			g.helpers[dep] = true
		}
	}
	var out string
	for _, h := range []string{helperErr, helperTry, helperEq, helperRange} {
		if !g.helpers[h] {
			continue
		}
		code := helperCode[h]
		if g.cfg.Minify {
			code = Minify(code, MinifyOptions{RemoveWhitespace: true, RemoveComments: true})
		}
		out += code + "\n"
	}
	return out
}

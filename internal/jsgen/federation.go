package jsgen

import (
	"strings"
)

// FederationConfig describes the module federation container of a
// build.
type FederationConfig struct {
	Name     string            // container name, default "app"
	Filename string            // remote entry file, default "remoteEntry.js"
	Exposes  map[string]string // exposed id ("./greet") -> item name
	Remotes  []Remote
	Shared   []string // module specifiers shared with remotes
}

// Remote is a federated module consumed by this build.
type Remote struct {
	Name string
	URL  string
}

func (fc *FederationConfig) name() string {
	if fc.Name == "" {
		return "app"
	}
	return fc.Name
}

func (fc *FederationConfig) filename() string {
	if fc.Filename == "" {
		return "remoteEntry.js"
	}
	return fc.Filename
}

// containerIdent returns a JavaScript identifier for the container.
func containerIdent(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String() + "Container"
}

// remoteEntry generates the container module exposing the configured
// items of the entry module.
func (g *generator) remoteEntry() string {
	fc := g.cfg.Federation
	container := containerIdent(fc.name())
	ids := sortedKeys(g.exposes)
	var items []string
	seen := make(map[string]bool)
	for _, id := range ids {
		item := g.ident(g.exposes[id])
		if !seen[item] {
			seen[item] = true
			items = append(items, item)
		}
	}

	var b strings.Builder
	b.WriteString("// Windjammer Module Federation - Remote Entry: " + fc.name() + "\n")
	if len(items) > 0 {
		b.WriteString("import { " + strings.Join(items, ", ") + " } from " + quoteJS("./"+g.cfg.name()+".js") + ";\n")
	}
	b.WriteString("\nconst " + container + " = {\n")
	b.WriteString("  __modules: {\n")
	for _, id := range ids {
		item := g.ident(g.exposes[id])
		b.WriteString("    " + quoteJS(id) + ": () => Promise.resolve({ " + item + ", default: " + item + " }),\n")
	}
	b.WriteString("  },\n")
	b.WriteString(`  __initialized: false,
  __shareScope: {},

  init(shareScope) {
    if (!this.__initialized) {
      this.__shareScope = shareScope || {};
      this.__initialized = true;
    }
  },

  get(id) {
    const factory = this.__modules[id];
    if (!factory) {
      return Promise.reject(new Error(` + "`Module '${id}' is not exposed by " + fc.name() + "`" + `));
    }
    return factory().then((module) => () => module);
  },
};
`)
	b.WriteString("\nexport const get = (id) => " + container + ".get(id);\n")
	b.WriteString("export const init = (shareScope) => " + container + ".init(shareScope);\n")
	b.WriteString("export default " + container + ";\n")
	return b.String()
}

// federationRuntime is the consumer side: loadRemote imports a remote
// entry, initializes it with the shared scope and resolves a module. The
// url may also be the name of a configured remote.
const federationRuntime = `const __wj_federation = {
  remotes: {},
  shared: {},
  urls: {},

  async container(url) {
    url = this.urls[url] || url;
    if (this.remotes[url]) {
      return this.remotes[url];
    }
    const entry = await import(url);
    const container = entry.default || entry;
    await container.init(this.shared);
    this.remotes[url] = container;
    return container;
  },

  async loadRemote(url, module) {
    try {
      const container = await this.container(url);
      const factory = await container.get(module);
      return factory();
    } catch (e) {
      console.error(` + "`Failed to load remote module ${module} from ${url}`" + `, e);
      throw e;
    }
  },
};`

// federationPrelude returns the consumer runtime with the configured
// remotes and shared modules.
func (g *generator) federationPrelude() string {
	fc := g.cfg.Federation
	var b strings.Builder
	b.WriteString(federationRuntime + "\n")
	for _, dep := range fc.Shared {
		b.WriteString("__wj_federation.shared[" + quoteJS(dep) + "] = { loaded: false, get: () => import(" + quoteJS(dep) + ") };\n")
	}
	for _, r := range fc.Remotes {
		b.WriteString("__wj_federation.urls[" + quoteJS(r.Name) + "] = " + quoteJS(r.URL) + ";\n")
	}
	return b.String()
}

package diag

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Catalog categories, in documentation order.
var Categories = []string{
	"Type Errors",
	"Ownership Errors",
	"Syntax Errors",
	"Module Errors",
	"Trait Errors",
	"Internal Errors",
}

// CatalogVersion is the version recorded in generated documentation.
const CatalogVersion = "0.1.0"

// Example shows a wrong program next to its fix.
type Example struct {
	Bad         string `json:"bad_code"`
	Good        string `json:"good_code"`
	Explanation string `json:"explanation"`
}

// Entry documents one error code.
type Entry struct {
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Causes      []string `json:"causes"`
	Solutions   []string `json:"solutions"`
	Example     *Example `json:"example,omitempty"`
	NativeCodes []string `json:"related_native_codes"`
	Related     []string `json:"related,omitempty"`
	Severity    string   `json:"severity"`
	Category    string   `json:"category"`
}

// Catalog is a registry of error entries keyed by code.
type Catalog struct {
	Version    string
	Categories []string
	entries    map[string]*Entry
}

// NewCatalog returns a catalog holding the built-in entries.
func NewCatalog() *Catalog {
	c := newEmptyCatalog()
	for _, e := range builtinEntries {
		c.Add(e)
	}
	return c
}

func newEmptyCatalog() *Catalog {
	return &Catalog{
		Version:    CatalogVersion,
		Categories: append([]string(nil), Categories...),
		entries:    make(map[string]*Entry),
	}
}

var (
	registryOnce sync.Once
	registry     *Catalog
)

// Registry returns the process-wide built-in catalog. It must not be
// modified.
func Registry() *Catalog {
	registryOnce.Do(func() { registry = NewCatalog() })
	return registry
}

// Add inserts e, replacing an entry with the same code.
func (c *Catalog) Add(e *Entry) {
	c.entries[e.Code] = e
}

// Get returns the entry for code. Lookup ignores case.
func (c *Catalog) Get(code string) (*Entry, bool) {
	e, ok := c.entries[strings.ToUpper(code)]
	return e, ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// All returns every entry ordered by code.
func (c *Catalog) All() []*Entry {
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Search returns the entries whose code, title or explanation contains
// query, ignoring case.
func (c *Catalog) Search(query string) []*Entry {
	q := strings.ToLower(query)
	var out []*Entry
	for _, e := range c.All() {
		if strings.Contains(strings.ToLower(e.Code), q) ||
			strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Explanation), q) {
			out = append(out, e)
		}
	}
	return out
}

// ByCategory returns the entries of category ordered by code.
func (c *Catalog) ByCategory(category string) []*Entry {
	var out []*Entry
	for _, e := range c.All() {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// MapNativeCode returns the lowest-numbered entry that lists the rustc
// error code native (for example "E0425").
func (c *Catalog) MapNativeCode(native string) (*Entry, bool) {
	for _, e := range c.All() {
		for _, n := range e.NativeCodes {
			if n == native {
				return e, true
			}
		}
	}
	return nil, false
}

// catalogFile is the JSON form of a catalog.
type catalogFile struct {
	Version    string   `json:"version"`
	Categories []string `json:"categories"`
	Errors     []*Entry `json:"errors"`
}

// WriteJSON writes the catalog as indented JSON.
func (c *Catalog) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(catalogFile{Version: c.Version, Categories: c.Categories, Errors: c.All()})
}

// ReadJSON decodes a catalog written by WriteJSON.
func ReadJSON(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{Version: f.Version, Categories: f.Categories, entries: make(map[string]*Entry, len(f.Errors))}
	for _, e := range f.Errors {
		if e.Code == "" {
			return nil, fmt.Errorf("decode catalog: entry without code")
		}
		c.Add(e)
	}
	return c, nil
}

// SaveJSON writes the catalog to path.
func (c *Catalog) SaveJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadJSON reads a catalog from path.
func LoadJSON(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// Explain writes the long-form explanation of code. It reports false if
// the code is unknown.
func (c *Catalog) Explain(w io.Writer, code string) bool {
	e, ok := c.Get(code)
	if !ok {
		return false
	}
	heading := func(col *color.Color, s string) { fmt.Fprintln(w, col.Sprint(s)) }

	fmt.Fprintf(w, "\n%s %s\n", errorColor.Sprint(e.Code), boldColor.Sprint(e.Title))
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 60))

	heading(yellowBold, "Explanation:")
	fmt.Fprintf(w, "%s\n\n", e.Explanation)

	if len(e.Causes) > 0 {
		heading(yellowBold, "Common Causes:")
		for i, s := range e.Causes {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
		fmt.Fprintln(w)
	}
	if len(e.Solutions) > 0 {
		heading(greenBold, "Solutions:")
		for i, s := range e.Solutions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
		fmt.Fprintln(w)
	}
	if e.Example != nil {
		heading(cyanBold, "Example:")
		fmt.Fprintf(w, "// Wrong:\n%s\n\n// Correct:\n%s\n", e.Example.Bad, e.Example.Good)
		if e.Example.Explanation != "" {
			fmt.Fprintf(w, "\n%s\n", e.Example.Explanation)
		}
		fmt.Fprintln(w)
	}
	if len(e.NativeCodes) > 0 {
		heading(faint, "Related Rust Errors:")
		fmt.Fprintf(w, "  %s\n", faint.Sprint(strings.Join(e.NativeCodes, ", ")))
	}
	return true
}

// WriteMarkdown renders the catalog as a Markdown document grouped by
// category.
func (c *Catalog) WriteMarkdown(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("# Windjammer Error Catalog\n\n")
	ew.printf("Version: %s\n\n", c.Version)
	for _, cat := range c.Categories {
		entries := c.ByCategory(cat)
		if len(entries) == 0 {
			continue
		}
		ew.printf("## %s\n\n", cat)
		for _, e := range entries {
			ew.printf("### %s: %s\n\n", e.Code, e.Title)
			ew.printf("%s\n\n", e.Explanation)
			if len(e.Causes) > 0 {
				ew.printf("**Common Causes:**\n\n")
				for _, s := range e.Causes {
					ew.printf("- %s\n", s)
				}
				ew.printf("\n")
			}
			if len(e.Solutions) > 0 {
				ew.printf("**Solutions:**\n\n")
				for _, s := range e.Solutions {
					ew.printf("- %s\n", s)
				}
				ew.printf("\n")
			}
			if ex := e.Example; ex != nil {
				ew.printf("**Wrong:**\n\n```windjammer\n%s\n```\n\n", ex.Bad)
				ew.printf("**Correct:**\n\n```windjammer\n%s\n```\n\n", ex.Good)
				if ex.Explanation != "" {
					ew.printf("%s\n\n", ex.Explanation)
				}
			}
			if len(e.NativeCodes) > 0 {
				ew.printf("Related Rust errors: %s\n\n", strings.Join(e.NativeCodes, ", "))
			}
			ew.printf("---\n\n")
		}
	}
	return ew.err
}

// WriteHTML renders the catalog as a standalone HTML page.
func (c *Catalog) WriteHTML(w io.Writer) error {
	esc := html.EscapeString
	ew := &errWriter{w: w}
	ew.printf("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	ew.printf("  <meta charset=\"UTF-8\">\n")
	ew.printf("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	ew.printf("  <title>Windjammer Error Catalog</title>\n")
	ew.printf("  <style>\n%s  </style>\n", catalogCSS)
	ew.printf("</head>\n<body>\n")
	ew.printf("  <header>\n    <h1>Windjammer Error Catalog</h1>\n    <p>Version %s</p>\n  </header>\n", esc(c.Version))

	ew.printf("  <nav>\n    <h2>Categories</h2>\n    <ul>\n")
	for _, cat := range c.Categories {
		ew.printf("      <li><a href=\"#%s\">%s</a></li>\n", anchor(cat), esc(cat))
	}
	ew.printf("    </ul>\n  </nav>\n  <main>\n")

	for _, cat := range c.Categories {
		ew.printf("    <section id=\"%s\">\n      <h2>%s</h2>\n", anchor(cat), esc(cat))
		for _, e := range c.ByCategory(cat) {
			ew.printf("      <article class=\"error\" id=\"%s\">\n", esc(e.Code))
			ew.printf("        <h3>%s - %s</h3>\n", esc(e.Code), esc(e.Title))
			ew.printf("        <p class=\"explanation\">%s</p>\n", esc(e.Explanation))
			htmlList(ew, "Common Causes:", e.Causes)
			htmlList(ew, "Solutions:", e.Solutions)
			if ex := e.Example; ex != nil {
				ew.printf("        <div class=\"example\">\n")
				ew.printf("          <div class=\"bad-code\">\n            <h6>Wrong:</h6>\n")
				ew.printf("            <pre><code>%s</code></pre>\n          </div>\n", esc(ex.Bad))
				ew.printf("          <div class=\"good-code\">\n            <h6>Correct:</h6>\n")
				ew.printf("            <pre><code>%s</code></pre>\n          </div>\n", esc(ex.Good))
				if ex.Explanation != "" {
					ew.printf("          <p class=\"example-explanation\">%s</p>\n", esc(ex.Explanation))
				}
				ew.printf("        </div>\n")
			}
			ew.printf("      </article>\n")
		}
		ew.printf("    </section>\n")
	}
	ew.printf("  </main>\n</body>\n</html>\n")
	return ew.err
}

func htmlList(ew *errWriter, title string, items []string) {
	if len(items) == 0 {
		return
	}
	ew.printf("        <h4>%s</h4>\n        <ul>\n", title)
	for _, s := range items {
		ew.printf("          <li>%s</li>\n", html.EscapeString(s))
	}
	ew.printf("        </ul>\n")
}

func anchor(category string) string {
	return strings.ToLower(strings.ReplaceAll(category, " ", "-"))
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

const catalogCSS = `    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; max-width: 960px; margin: 0 auto; padding: 2rem; color: #222; }
    header { border-bottom: 2px solid #0b5394; margin-bottom: 1rem; }
    nav ul { list-style: none; padding: 0; display: flex; gap: 1rem; flex-wrap: wrap; }
    article.error { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin: 1rem 0; }
    .bad-code pre { background: #fdecea; padding: 0.5rem; }
    .good-code pre { background: #e8f5e9; padding: 0.5rem; }
    .example-explanation { font-style: italic; }
`

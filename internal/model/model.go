// Package model defines core data structures for luabundle.
package model

// Density selects the output style of the code processor.
type Density string

const (
	Readable Density = "readable"
	Dense    Density = "dense"
)

// DensityFor maps the minify flag to a Density.
func DensityFor(minify bool) Density {
	if minify {
		return Dense
	}
	return Readable
}

// CallSite is one occurrence of a dependency statement.
type CallSite struct {
	// Matched is the exact statement text, including the surrounding quotes
	// of the string-embedded form and a consumed trailing semicolon.
	Matched string `yaml:"-"`
	// Path is the module path as written, relative to the requiring file.
	Path string `yaml:"path"`
	// Args is the forwarded argument list, empty when absent.
	Args string `yaml:"args,omitempty"`
	// Suffix is the postfix chain following the statement, e.g. ".run()".
	Suffix string `yaml:"suffix,omitempty"`
	// Embedded reports whether the statement is the whole content of a
	// quoted string literal.
	Embedded bool `yaml:"embedded,omitempty"`

	// File is the requiring file. Empty for sites returned by parse.Scan.
	File string `yaml:"file"`
	// Start and End delimit Matched in the buffer it was scanned from.
	Start int `yaml:"-"`
	End   int `yaml:"-"`
	// Depth is the nesting level in the dependency tree; 0 for sites found
	// in the entry file.
	Depth int `yaml:"depth"`
}

// Multiline reports whether the matched statement spans more than one line.
func (c CallSite) Multiline() bool {
	for i := 0; i < len(c.Matched); i++ {
		if c.Matched[i] == '\n' {
			return true
		}
	}
	return false
}

// ModuleInfo describes one module file in a dependency report.
type ModuleInfo struct {
	Path      string  `yaml:"path"`
	Requirers int     `yaml:"requirers"`
	Sites     int     `yaml:"sites"`
	Local     bool    `yaml:"local"`
	Rank      float64 `yaml:"rank"`
}

// Dependency is an edge of the module graph: Source requires Target.
type Dependency struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Count  int    `yaml:"count"`
}

// Report is the dependency report for one entry file.
type Report struct {
	Entry        string       `yaml:"entry"`
	Modules      []ModuleInfo `yaml:"modules"`
	Dependencies []Dependency `yaml:"dependencies"`
	Sites        []CallSite   `yaml:"sites,omitempty"`
	// Unused lists Lua files next to the entry that no call site reaches.
	Unused []string `yaml:"unused,omitempty"`
}

package lang

import "github.com/smacker/go-tree-sitter/lua"

// Lua is the language the bundler inlines.
var Lua = &Language{
	Name:           "lua",
	Extensions:     []string{".lua"},
	lang:           lua.GetLanguage(),
	RequireKeyword: "require",
	LineComment:    "--",
	Quotes:         `"'`,
}

func init() {
	Languages[Lua.Name] = Lua
}

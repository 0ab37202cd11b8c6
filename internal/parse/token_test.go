package parse

import (
	"reflect"
	"testing"
)

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"declaration", "local x=1", []string{"local", "x", "=", "1"}},
		{"comments dropped", "a --[[ b ]] c -- d\ne", []string{"a", "c", "e"}},
		{"strings kept whole", `f("a -- b", 'c\'d', [==[x]]y]==])`, []string{"f", "(", `"a -- b"`, `,`, `'c\'d'`, ",", "[==[x]]y]==]", ")"}},
		{"long operators", "a...b..c==d~=e<=f>=g//h", []string{"a", "...", "b", "..", "c", "==", "d", "~=", "e", "<=", "f", ">=", "g", "//", "h"}},
		{"label", "::top::", []string{"::", "top", "::"}},
		{"numbers", "x = 0x1Fp-2 + 1e+5 + .5 + 3.", []string{"x", "=", "0x1Fp-2", "+", "1e+5", "+", ".5", "+", "3."}},
		{"index bracket", "t[1]", []string{"t", "[", "1", "]"}},
		{"shebang", "#!/usr/bin/lua\nprint(1)", []string{"#!/usr/bin/lua", "print", "(", "1", ")"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := texts(Tokenize(tt.src)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestTokenizeKinds(t *testing.T) {
	t.Parallel()

	toks := Tokenize("#!lua\nlocal goto = 'x' .. 2")
	want := []Kind{Shebang, Keyword, Name, Symbol, String, Symbol, Number}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens: %+v", len(toks), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d (%q): kind %d, want %d", i, toks[i].Text, toks[i].Kind, k)
		}
	}
	if toks[1].Start != 6 {
		t.Errorf("local starts at %d, want 6", toks[1].Start)
	}
}

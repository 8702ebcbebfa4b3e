package cpp

import "testing"

func TestTokenKindString(t *testing.T) {
	tests := []struct {
		k    TokenKind
		want string
	}{
		{TokIdentifier, "IDENTIFIER"},
		{TokNumber, "NUMBER"},
		{TokString, "STRING"},
		{TokCharConst, "CHAR_CONST"},
		{TokPunctuator, "PUNCTUATOR"},
		{TokenKind(999), "UNKNOWN"},
	}
	for _, tc := range tests {
		if got := tc.k.String(); got != tc.want {
			t.Errorf("TokenKind(%d).String() = %q, want %q", tc.k, got, tc.want)
		}
	}
}

func collectTokens(input string) []string {
	tok := NewTokenizer(input)
	var out []string
	for {
		t, ok := tok.Next()
		if !ok {
			return out
		}
		out = append(out, t.Text(input))
	}
}

func TestTokenizerIdentifiers(t *testing.T) {
	got := collectTokens("foo _bar123 __MACRO")
	want := []string{"foo", "_bar123", "__MACRO"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{"0x1F", "0x1F"},
		{"1e+10", "1e+10"},
		{"1e-10", "1e-10"},
	}
	for _, tc := range tests {
		tok := NewTokenizer(tc.input)
		got, ok := tok.Next()
		if !ok {
			t.Fatalf("input %q: expected a token", tc.input)
		}
		if got.Kind != TokNumber || got.Text(tc.input) != tc.want {
			t.Errorf("input %q: got %v %q, want NUMBER %q", tc.input, got.Kind, got.Text(tc.input), tc.want)
		}
	}
}

func TestTokenizerStringAndCharLiterals(t *testing.T) {
	got := collectTokens(`"hello \"world\"" 'a' 'a\''`)
	want := []string{`"hello \"world\""`, "'a'", `'a\''`}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizerPunctuators(t *testing.T) {
	got := collectTokens("a->b <<= c ... d == e")
	want := []string{"a", "->", "b", "<<=", "c", "...", "d", "==", "e"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizerHashAndHashHash(t *testing.T) {
	got := collectTokens("# ## #x")
	want := []string{"#", "##", "#", "x"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizerSetCursorResumes(t *testing.T) {
	input := "alpha beta gamma"
	tok := NewTokenizer(input)
	first, _ := tok.Next()
	if first.Text(input) != "alpha" {
		t.Fatalf("got %q, want alpha", first.Text(input))
	}
	tok.SetCursor(0)
	if tok.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", tok.Cursor())
	}
	again, _ := tok.Next()
	if again.Text(input) != "alpha" {
		t.Errorf("after SetCursor(0), got %q, want alpha", again.Text(input))
	}
}

func TestTokenizerSkipsWhitespaceOnly(t *testing.T) {
	tok := NewTokenizer("   \t\r  ")
	if _, ok := tok.Next(); ok {
		t.Error("expected no tokens from whitespace-only input")
	}
}

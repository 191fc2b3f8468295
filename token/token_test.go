package token

import (
	"testing"
)

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		want      Token
	}{
		{
			name:      "create ASSIGN token",
			tokenType: ASSIGN,
			want:      Token{TokenType: ASSIGN, Lexeme: "="},
		},
		{
			name:      "create MULT token",
			tokenType: MULT,
			want:      Token{TokenType: MULT, Lexeme: "*"},
		},
		{
			name:      "create ELLIPSIS token",
			tokenType: ELLIPSIS,
			want:      Token{TokenType: ELLIPSIS, Lexeme: "..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateToken(tt.tokenType, 0, 0)
			if got != tt.want {
				t.Errorf("CreateToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateLiteralToken(t *testing.T) {
	got := CreateLiteralToken(IDENTIFIER, nil, "myVar", 2, 4)
	if got.Lexeme != "myVar" || got.Line != 2 || got.Column != 4 {
		t.Errorf("CreateLiteralToken() = %v", got)
	}
}

func TestKeyWordsCoverAllReservedWords(t *testing.T) {
	for _, word := range []string{"func", "or", "and", "in", "await", "while", "var", "const", "return", "if", "else", "elif", "break", "continue", "true", "false", "null"} {
		if _, ok := KeyWords[word]; !ok {
			t.Errorf("expected %q to be a registered keyword", word)
		}
	}
}

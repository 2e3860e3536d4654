package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var QueryLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},

		// Keywords, operator names and input atoms (order matters)
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},

		// Integer literals
		{Name: "Integer", Pattern: `0x[0-9a-fA-F]+|[0-9]+`, Action: nil},

		// Seed byte strings
		{Name: "String", Pattern: `"[^"]*"`, Action: nil},

		// Punctuation
		{Name: "Punctuation", Pattern: `[{}();]`, Action: nil},

		// Whitespace
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})

package grammar

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var parser = buildParser()

func buildParser() *participle.Parser[QueryFile] {
	p, err := participle.Build[QueryFile](
		participle.Lexer(QueryLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build parser: %w", err))
	}
	return p
}

func ParseFile(path string) (*QueryFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseSource(path, string(source))
}

func ParseSource(sourceName string, source string) (*QueryFile, error) {
	return parser.ParseString(sourceName, source)
}

// ParseExpr parses a bare s-expression, the REPL's line format.
func ParseExpr(source string) (*SExpr, error) {
	wrapped := fmt.Sprintf("query { input 0; solve %s; }", source)
	qf, err := ParseSource("<expr>", wrapped)
	if err != nil {
		return nil, err
	}
	return qf.Query.Solve, nil
}

// ReportParseError prints a friendly caret-style parse error message.
func ReportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("❌ Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}

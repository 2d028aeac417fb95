package symbolic

import (
	"fmt"
	"math/big"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ============================================================
// Parser for the String() format
// ============================================================

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(\.\d*)?|\.\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[-+*/^()\[\],]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// exprAST mirrors the precedence of String:
//
//	expr  := term (("+" | "-") term)*
//	term  := unary (("*" | "/") unary)*
//	unary := "-" unary | power
//	power := atom ("^" unary)?
//	atom  := number | name ("(" expr ")")? | "(" expr ")"
//	name  := ident ("[" name "]")?
type exprAST struct {
	First *termAST     `@@`
	Rest  []*addendAST `@@*`
}

type addendAST struct {
	Op   string   `@("+" | "-")`
	Term *termAST `@@`
}

type termAST struct {
	First *unaryAST    `@@`
	Rest  []*factorAST `@@*`
}

type factorAST struct {
	Pos   lexer.Position
	Op    string    `@("*" | "/")`
	Unary *unaryAST `@@`
}

type unaryAST struct {
	Neg   *unaryAST `  "-" @@`
	Power *powerAST `| @@`
}

type powerAST struct {
	Base *atomAST  `@@`
	Exp  *unaryAST `( "^" @@ )?`
}

type atomAST struct {
	Number *string  `  @Number`
	Call   *callAST `| @@`
	Group  *exprAST `| "(" @@ ")"`
}

type callAST struct {
	Pos  lexer.Position
	Name *nameAST `@@`
	Arg  *exprAST `( "(" @@ ")" )?`
}

// nameAST carries derivative brackets such as D[a], as in D[a](t).
type nameAST struct {
	Ident string   `@Ident`
	Inner *nameAST `( "[" @@ "]" )?`
}

type matrixAST struct {
	Rows []*rowAST `"[" @@ ( "," @@ )* "]"`
}

type rowAST struct {
	Pos     lexer.Position
	Entries []*exprAST `"[" @@ ( "," @@ )* "]"`
}

var (
	exprParser = participle.MustBuild[exprAST](
		participle.Lexer(exprLexer),
		participle.Elide("Whitespace"),
	)
	matrixParser = participle.MustBuild[matrixAST](
		participle.Lexer(exprLexer),
		participle.Elide("Whitespace"),
	)
)

// Parse reads an expression in the format produced by String.
func Parse(s string) (Expr, error) {
	ast, err := exprParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return ast.build()
}

// ParseMatrix reads the String format of a Matrix: [[a, b], [c, d]].
func ParseMatrix(s string) (*Matrix, error) {
	ast, err := matrixParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	cols := len(ast.Rows[0].Entries)
	m := NewMatrix(len(ast.Rows), cols)
	for i, row := range ast.Rows {
		if len(row.Entries) != cols {
			return nil, parseErrorf(row.Pos, "ragged matrix row %d", i)
		}
		for j, entry := range row.Entries {
			e, err := entry.build()
			if err != nil {
				return nil, err
			}
			m.data[i][j] = e
		}
	}
	return m, nil
}

func parseErrorf(pos lexer.Position, format string, args ...interface{}) error {
	return fmt.Errorf("%w: at offset %d: %s", ErrParse, pos.Offset, fmt.Sprintf(format, args...))
}

func (a *exprAST) build() (Expr, error) {
	first, err := a.First.build()
	if err != nil {
		return nil, err
	}
	if len(a.Rest) == 0 {
		return first, nil
	}
	terms := []Expr{first}
	for _, r := range a.Rest {
		t, err := r.Term.build()
		if err != nil {
			return nil, err
		}
		if r.Op == "-" {
			t = MulOf(N(-1), t)
		}
		terms = append(terms, t)
	}
	return AddOf(terms...), nil
}

func (a *termAST) build() (Expr, error) {
	first, err := a.First.build()
	if err != nil {
		return nil, err
	}
	if len(a.Rest) == 0 {
		return first, nil
	}
	factors := []Expr{first}
	for _, r := range a.Rest {
		f, err := r.Unary.build()
		if err != nil {
			return nil, err
		}
		if r.Op == "/" {
			if isNumEqual(f, 0) {
				return nil, parseErrorf(r.Pos, "division by zero")
			}
			f = PowOf(f, N(-1))
		}
		factors = append(factors, f)
	}
	return MulOf(factors...), nil
}

func (a *unaryAST) build() (Expr, error) {
	if a.Neg != nil {
		e, err := a.Neg.build()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	}
	return a.Power.build()
}

func (a *powerAST) build() (Expr, error) {
	base, err := a.Base.build()
	if err != nil {
		return nil, err
	}
	if a.Exp == nil {
		return base, nil
	}
	exp, err := a.Exp.build()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

func (a *atomAST) build() (Expr, error) {
	switch {
	case a.Number != nil:
		r, ok := new(big.Rat).SetString(*a.Number)
		if !ok {
			return nil, fmt.Errorf("%w: invalid number %q", ErrParse, *a.Number)
		}
		return &Num{val: r}, nil
	case a.Call != nil:
		return a.Call.build()
	}
	return a.Group.build()
}

func (a *callAST) build() (Expr, error) {
	name := a.Name.String()
	if a.Arg == nil {
		if a.Name.Inner != nil {
			return nil, parseErrorf(a.Pos, "%s must be applied to an argument", name)
		}
		return S(name), nil
	}
	arg, err := a.Arg.build()
	if err != nil {
		return nil, err
	}
	return funcOf(name, arg).Simplify(), nil
}

func (a *nameAST) String() string {
	if a.Inner == nil {
		return a.Ident
	}
	return a.Ident + "[" + a.Inner.String() + "]"
}

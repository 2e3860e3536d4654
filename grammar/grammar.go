package grammar

// A query file declares the symbolic input, an optional concrete seed,
// the accumulated path constraints, and the branch condition to solve:
//
//	query {
//	    input 8;
//	    seed "00 00 00 00 00 00 00 00";
//	    assume (ult (concat b1 b0) 0x1000);
//	    solve (ugt (concat b1 b0) 0x0ff0);
//	}
//
// Expressions are s-expressions over the solver's operator names, with
// bN input-byte atoms, integer literals, and true/false.

type QueryFile struct {
	Query *Query `@@`
}

type Query struct {
	Input   int      `"query" "{" "input" @Integer ";"`
	Seed    *string  `[ "seed" @String ";" ]`
	Assumes []*SExpr `{ "assume" @@ ";" }`
	Solve   *SExpr   `"solve" @@ ";"`
	Close   string   `"}"`
}

type SExpr struct {
	Atom *string `  @Ident`
	Num  *string `| @Integer`
	List *List   `| @@`
}

type List struct {
	Op   string   `"(" @Ident`
	Args []*SExpr `@@* ")"`
}

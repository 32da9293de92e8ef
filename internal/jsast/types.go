package jsast

import sitter "github.com/tree-sitter/go-tree-sitter"

// Node kinds from tree-sitter-javascript used by the transform
const (
	KindHashBangLine            = "hash_bang_line"
	KindComment                 = "comment"
	KindExpressionStatement     = "expression_statement"
	KindImportStatement         = "import_statement"
	KindImportClause            = "import_clause"
	KindIdentifier              = "identifier"
	KindString                  = "string"
	KindTemplateString          = "template_string"
	KindTemplateSubstitution    = "template_substitution"
	KindCallExpression          = "call_expression"
	KindArguments               = "arguments"
	KindParenthesizedExpression = "parenthesized_expression"
	KindPropertyIdentifier      = "property_identifier"
	KindShorthandProperty       = "shorthand_property_identifier"
	KindShorthandPattern        = "shorthand_property_identifier_pattern"
	KindStatementIdentifier     = "statement_identifier"
)

// Import is a top-level import declaration
type Import struct {
	// Node is the import_statement node
	Node *sitter.Node
	// Source is the cooked module specifier, e.g. "handlebars/runtime"
	Source string
}

package precompile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/aymerick/raymond/ast"
	json "github.com/goccy/go-json"
)

// prelude declares the locals every generated program function uses.
// lookupProperty falls back to an own-property check on runtimes older
// than 4.6 that don't provide container.lookupProperty.
const prelude = `var stack1, helper, options, alias1 = depth0 != null ? depth0 : (container.nullContext || {}), ` +
	`lookupProperty = container.lookupProperty || function(parent, propertyName) {` +
	`if (Object.prototype.hasOwnProperty.call(parent, propertyName)) {return parent[propertyName];}` +
	`return undefined};`

const programParams = "container,depth0,helpers,partials,data,blockParams,depths"

// generator emits a template spec from a parsed Handlebars program.
// Child programs (block bodies and else branches) are numbered from 1 in
// the order they are reached.
type generator struct {
	programs   []string
	useDepths  bool
	usePartial bool
}

func (g *generator) templateSpec(main *ast.Program) (string, error) {
	mainFn, err := g.function(main)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, fn := range g.programs {
		fmt.Fprintf(&b, `"%d":%s,`, i+1, fn)
	}
	b.WriteString(`"compiler":` + compilerInfo + `,"main":` + mainFn)
	if g.usePartial {
		b.WriteString(`,"usePartial":true`)
	}
	b.WriteString(`,"useData":true`)
	if g.useDepths {
		b.WriteString(`,"useDepths":true`)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// function compiles a program into a JavaScript function expression
func (g *generator) function(p *ast.Program) (string, error) {
	if len(p.BlockParams) > 0 {
		return "", fmt.Errorf("block parameters (as |%s|) are not supported", strings.Join(p.BlockParams, " "))
	}

	var parts []string
	for _, node := range p.Body {
		part, err := g.statement(node)
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	// Force string concatenation even when the first part is a number
	if len(parts) == 0 || !strings.HasPrefix(parts[0], `"`) {
		parts = append([]string{`""`}, parts...)
	}

	return "function(" + programParams + ") {" + prelude +
		"\n  return " + strings.Join(parts, "\n    + ") + ";\n}", nil
}

// child compiles p as a numbered program and returns a reference to it
func (g *generator) child(p *ast.Program) (string, error) {
	if p == nil {
		return "container.noop", nil
	}

	g.programs = append(g.programs, "")
	index := len(g.programs)
	fn, err := g.function(p)
	if err != nil {
		return "", err
	}
	g.programs[index-1] = fn
	return fmt.Sprintf("container.program(%d, data, 0, blockParams, depths)", index), nil
}

func (g *generator) statement(node ast.Node) (string, error) {
	switch n := node.(type) {
	case *ast.ContentStatement:
		if n.Value == "" {
			return "", nil
		}
		return quote(n.Value), nil
	case *ast.CommentStatement:
		return "", nil
	case *ast.MustacheStatement:
		return g.mustache(n)
	case *ast.BlockStatement:
		return g.block(n)
	case *ast.PartialStatement:
		return g.partial(n)
	}
	return "", fmt.Errorf("unsupported statement %T", node)
}

func (g *generator) mustache(m *ast.MustacheStatement) (string, error) {
	expr := m.Expression

	var value string
	var err error
	switch {
	case hasArguments(expr):
		value, err = g.helperCall(expr)
	case isAmbiguous(expr):
		value = g.ambiguous(expr)
	default:
		var path string
		path, err = g.value(expr.Path)
		value = "container.lambda(" + path + ", depth0)"
	}
	if err != nil {
		return "", err
	}

	if m.Unescaped {
		return orEmpty(value), nil
	}
	return "container.escapeExpression(" + value + ")", nil
}

// ambiguous resolves a bare name that may be a helper or a context
// property. Functions found on the context are invoked like helpers.
func (g *generator) ambiguous(expr *ast.Expression) string {
	name := quote(helperName(expr))
	opts := `{"name":` + name + `,"hash":{},"data":data}`
	return `(helper = (helper = lookupProperty(helpers,` + name + `) || ` + contextLookup(name) + `) != null ? helper : container.hooks.helperMissing, ` +
		`typeof helper === "function" ? helper.call(alias1,` + opts + `) : helper)`
}

func (g *generator) helperCall(expr *ast.Expression) (string, error) {
	args, err := g.arguments(expr, "")
	if err != nil {
		return "", err
	}
	callee, err := g.helperCallee(expr)
	if err != nil {
		return "", err
	}
	return callee + ".call(" + args + ")", nil
}

// helperCallee resolves the function invoked by a helper call. Unknown
// helpers fall through to helperMissing, which throws for calls with
// arguments.
func (g *generator) helperCallee(expr *ast.Expression) (string, error) {
	if path, ok := expr.Path.(*ast.PathExpression); ok && !isSimple(path) {
		value, err := g.value(path)
		if err != nil {
			return "", err
		}
		return "(" + value + " || container.hooks.helperMissing)", nil
	}

	name := quote(helperName(expr))
	return `(lookupProperty(helpers,` + name + `) || (depth0 != null && lookupProperty(depth0,` + name + `)) || container.hooks.helperMissing)`, nil
}

// arguments renders the call arguments of a helper: the context, the
// positional params, then the options hash. extra is spliced into the
// options object (fn and inverse for blocks).
func (g *generator) arguments(expr *ast.Expression, extra string) (string, error) {
	args := []string{"alias1"}
	for _, param := range expr.Params {
		v, err := g.value(param)
		if err != nil {
			return "", err
		}
		args = append(args, v)
	}

	hash, err := g.hash(expr.Hash)
	if err != nil {
		return "", err
	}
	args = append(args, `{"name":`+quote(helperName(expr))+`,"hash":`+hash+extra+`,"data":data}`)
	return strings.Join(args, ","), nil
}

func (g *generator) block(b *ast.BlockStatement) (string, error) {
	fn, err := g.child(b.Program)
	if err != nil {
		return "", err
	}
	inverse, err := g.child(b.Inverse)
	if err != nil {
		return "", err
	}
	programs := `,"fn":` + fn + `,"inverse":` + inverse

	expr := b.Expression
	path, isPath := expr.Path.(*ast.PathExpression)

	if hasArguments(expr) || !isPath {
		args, err := g.arguments(expr, programs)
		if err != nil {
			return "", err
		}
		callee, err := g.helperCallee(expr)
		if err != nil {
			return "", err
		}
		return orEmpty(callee + ".call(" + args + ")"), nil
	}

	value, err := g.value(path)
	if err != nil {
		return "", err
	}
	opts := `{"name":` + quote(helperName(expr)) + `,"hash":{}` + programs + `,"data":data}`
	// A context value drives the block through blockHelperMissing:
	// true/false toggle, arrays iterate, objects become the new context.
	missing := `container.hooks.blockHelperMissing.call(depth0, typeof (helper = ` + value + `) === "function" ? helper.call(alias1, options) : helper, options)`
	if !isSimple(path) {
		return orEmpty("(options = " + opts + ", " + missing + ")"), nil
	}
	name := quote(helperName(expr))
	return orEmpty("(options = " + opts + ", (helper = lookupProperty(helpers," + name + ")) != null ? helper.call(alias1, options) : " + missing + ")"), nil
}

func (g *generator) partial(p *ast.PartialStatement) (string, error) {
	g.usePartial = true

	var partial, name string
	switch n := p.Name.(type) {
	case *ast.SubExpression:
		// Dynamic partial: the runtime resolves options.name
		call, err := g.helperCall(n.Expression)
		if err != nil {
			return "", err
		}
		partial, name = "undefined", call
	default:
		literal, err := literalName(p.Name)
		if err != nil {
			return "", err
		}
		name = quote(literal)
		partial = "lookupProperty(partials," + name + ")"
	}

	context := "depth0"
	if len(p.Params) > 1 {
		return "", fmt.Errorf("partial %s accepts at most one context parameter", name)
	}
	if len(p.Params) == 1 {
		v, err := g.value(p.Params[0])
		if err != nil {
			return "", err
		}
		context = v
	}

	opts := `{"name":` + name
	if p.Hash != nil && len(p.Hash.Pairs) > 0 {
		hash, err := g.hash(p.Hash)
		if err != nil {
			return "", err
		}
		opts += `,"hash":` + hash
	}
	if p.Indent != "" {
		opts += `,"indent":` + quote(p.Indent)
	}
	opts += `,"data":data,"helpers":helpers,"partials":partials,"decorators":container.decorators}`

	return orEmpty("container.invokePartial(" + partial + ", " + context + ", " + opts + ")"), nil
}

func (g *generator) hash(h *ast.Hash) (string, error) {
	if h == nil || len(h.Pairs) == 0 {
		return "{}", nil
	}
	pairs := make([]string, 0, len(h.Pairs))
	for _, pair := range h.Pairs {
		v, err := g.value(pair.Val)
		if err != nil {
			return "", err
		}
		pairs = append(pairs, quote(pair.Key)+":"+v)
	}
	return "{" + strings.Join(pairs, ",") + "}", nil
}

// value compiles a param, hash value or path into an expression that
// evaluates it without helper resolution.
func (g *generator) value(node ast.Node) (string, error) {
	switch n := node.(type) {
	case *ast.PathExpression:
		return g.path(n), nil
	case *ast.StringLiteral:
		return quote(n.Value), nil
	case *ast.NumberLiteral:
		return strconv.FormatFloat(n.Value, 'g', -1, 64), nil
	case *ast.BooleanLiteral:
		return strconv.FormatBool(n.Value), nil
	case *ast.SubExpression:
		return g.helperCall(n.Expression)
	case *ast.Expression:
		if hasArguments(n) {
			return g.helperCall(n)
		}
		return g.value(n.Path)
	}
	return "", fmt.Errorf("unsupported expression %T", node)
}

// path looks up each part in turn, yielding undefined/null as soon as an
// intermediate value is missing.
func (g *generator) path(p *ast.PathExpression) string {
	base := "depth0"
	switch {
	case p.Data && p.Depth > 0:
		base = "container.data(data, " + strconv.Itoa(p.Depth) + ")"
	case p.Data:
		base = "data"
	case p.Depth > 0:
		g.useDepths = true
		base = "depths[" + strconv.Itoa(p.Depth) + "]"
	}

	expr := base
	for i, part := range p.Parts {
		name := quote(part)
		if i == 0 {
			expr = "(" + base + " != null ? lookupProperty(" + base + "," + name + ") : " + base + ")"
			continue
		}
		expr = "((stack1 = " + expr + ") != null ? lookupProperty(stack1," + name + ") : stack1)"
	}
	return expr
}

func contextLookup(name string) string {
	return "(depth0 != null ? lookupProperty(depth0," + name + ") : depth0)"
}

func orEmpty(expr string) string {
	return "((stack1 = " + expr + ") != null ? stack1 : \"\")"
}

func hasArguments(expr *ast.Expression) bool {
	return len(expr.Params) > 0 || (expr.Hash != nil && len(expr.Hash.Pairs) > 0)
}

// isSimple reports whether p is a single bare name: no data prefix, no
// depth, no this.
func isSimple(p *ast.PathExpression) bool {
	return !p.Data && p.Depth == 0 && !p.Scoped && len(p.Parts) == 1
}

func isAmbiguous(expr *ast.Expression) bool {
	if path, ok := expr.Path.(*ast.PathExpression); ok {
		return isSimple(path)
	}
	// Literal names ({{"foo"}}, {{1}}) are looked up like bare names
	return true
}

// helperName is the name reported to helpers in options.name
func helperName(expr *ast.Expression) string {
	if path, ok := expr.Path.(*ast.PathExpression); ok {
		return path.Original
	}
	name, _ := literalName(expr.Path)
	return name
}

func literalName(node ast.Node) (string, error) {
	switch n := node.(type) {
	case *ast.PathExpression:
		return n.Original, nil
	case *ast.StringLiteral:
		return n.Value, nil
	case *ast.NumberLiteral:
		return strconv.FormatFloat(n.Value, 'g', -1, 64), nil
	case *ast.BooleanLiteral:
		return strconv.FormatBool(n.Value), nil
	}
	return "", fmt.Errorf("unsupported name %T", node)
}

// quote renders s as a JavaScript string literal. HTML characters are
// kept as-is since templates are mostly markup.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

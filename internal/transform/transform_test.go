package transform_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/hbsip/internal/precompile"
	"bennypowers.dev/hbsip/internal/transform"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

// quoting wraps the template in a spec-shaped object literal so outputs are
// easy to read
var quoting = precompile.Func(func(source string) (string, error) {
	return `{"main":` + strconv.Quote(source) + `}`, nil
})

func newPlugin() *transform.Plugin {
	return transform.New(transform.Options{Precompiler: quoting})
}

func run(t *testing.T, source string) *transform.Result {
	t.Helper()
	result, err := newPlugin().TransformFile("/src/app.js", []byte(source))
	require.NoError(t, err)
	return result
}

func runErr(t *testing.T, source string) error {
	t.Helper()
	result, err := newPlugin().TransformFile("/src/app.js", []byte(source))
	require.Error(t, err)
	assert.Nil(t, result, "no output on failure")
	return err
}

func TestTransformCall(t *testing.T) {
	source := "import hbs from 'handlebars-inline-precompile';\n" +
		"const t = hbs('Hello {{name}}');\n"

	result := run(t, source)

	assert.Equal(t, "import Handlebars0 from 'handlebars/runtime';\n"+
		`const t = Handlebars0.template({"main":"Hello {{name}}"});`+"\n", result.Code)
	assert.True(t, result.Changed)
	assert.Equal(t, "Handlebars0", result.Binding)
	assert.Equal(t, 1, result.Replacements)
}

func TestTransformTaggedTemplateMatchesCall(t *testing.T) {
	call := run(t, "import hbs from 'handlebars-inline-precompile';\nconst t = hbs('Hello {{name}}');\n")
	tagged := run(t, "import hbs from 'handlebars-inline-precompile';\nconst t = hbs`Hello {{name}}`;\n")

	assert.Equal(t, call.Code, tagged.Code)
}

func TestTransformCookedText(t *testing.T) {
	tests := []struct {
		name  string
		usage string
		want  string
	}{
		{"string escapes", `hbs('a\tb\'c')`, "a\tb'c"},
		{"double quoted", `hbs("say \"hi\"")`, `say "hi"`},
		{"template escapes", "hbs`line\\nbreak \\u{1F600}`", "line\nbreak \U0001F600"},
		{"template newline", "hbs`one\ntwo`", "one\ntwo"},
		{"template backtick", "hbs`\\``", "`"},
		{"parenthesized argument", `hbs(('a'))`, "a"},
		{"lone surrogate", `hbs('\uD83D')`, "\uFFFD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			plugin := transform.New(transform.Options{
				Precompiler: precompile.Func(func(source string) (string, error) {
					got = source
					return "{}", nil
				}),
			})
			_, err := plugin.TransformFile("a.js", []byte("import hbs from 'handlebars-inline-precompile';\n"+tt.usage+";\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransformParenthesizedCallee(t *testing.T) {
	result := run(t, "import hbs from 'handlebars-inline-precompile';\nconst a = (hbs)('x');\nconst b = ((hbs))`y`;\n")

	assert.Equal(t, 2, result.Replacements)
	assert.Equal(t, "import Handlebars0 from 'handlebars/runtime';\n"+
		`const a = Handlebars0.template({"main":"x"});`+"\n"+
		`const b = Handlebars0.template({"main":"y"});`+"\n", result.Code)
}

func TestTransformLocalNameIsFree(t *testing.T) {
	result := run(t, "import tpl from 'handlebars-inline-precompile';\nexport default tpl`<b>{{x}}</b>`;\n")

	assert.Equal(t, "import Handlebars0 from 'handlebars/runtime';\n"+
		`export default Handlebars0.template({"main":"<b>{{x}}</b>"});`+"\n", result.Code)
}

func TestTransformMultipleUsages(t *testing.T) {
	source := `import hbs from 'handlebars-inline-precompile';
const a = hbs('a');
function render() {
  return [hbs` + "`b`" + `, hbs('c')];
}
`
	result := run(t, source)

	assert.Equal(t, 3, result.Replacements)
	assert.Equal(t, 3, strings.Count(result.Code, "Handlebars0.template("))
	assert.NotContains(t, result.Code, "hbs")
	assert.NotContains(t, result.Code, "handlebars-inline-precompile")
}

func TestTransformUsageBeforeImport(t *testing.T) {
	source := "const early = hbs('early');\nimport hbs from 'handlebars-inline-precompile';\n"

	result := run(t, source)

	assert.Equal(t, "import Handlebars0 from 'handlebars/runtime';\n"+
		`const early = Handlebars0.template({"main":"early"});`+"\n", result.Code)
}

func TestTransformPrologue(t *testing.T) {
	source := "#!/usr/bin/env node\n'use strict';\n// greeting\nimport hbs from 'handlebars-inline-precompile';\nhbs('x');\n"

	result := run(t, source)

	assert.Equal(t, "#!/usr/bin/env node\n'use strict';\n// greeting\n"+
		"import Handlebars0 from 'handlebars/runtime';\n"+
		`Handlebars0.template({"main":"x"});`+"\n", result.Code)
}

func TestTransformAvoidsExistingNames(t *testing.T) {
	source := "import hbs from 'handlebars-inline-precompile';\nconst Handlebars0 = 'taken';\nhbs('x');\n"

	result := run(t, source)

	assert.Equal(t, "Handlebars1", result.Binding)
	assert.Equal(t, "import Handlebars1 from 'handlebars/runtime';\n"+
		"const Handlebars0 = 'taken';\n"+
		`Handlebars1.template({"main":"x"});`+"\n", result.Code)
}

func TestTransformIgnoresOtherCallees(t *testing.T) {
	tests := []struct {
		name  string
		usage string
	}{
		{"other identifier", "other('x');"},
		{"member call", "obj.hbs('x');"},
		{"optional call", "hbs?.('x');"},
		{"new expression", "new hbs('x');"},
		{"other tag", "html`x`;"},
		{"reference only", "const f = hbs;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, "import hbs from 'handlebars-inline-precompile';\n"+tt.usage+"\n")

			assert.Equal(t, "import Handlebars0 from 'handlebars/runtime';\n"+tt.usage+"\n", result.Code)
			assert.Zero(t, result.Replacements)
		})
	}
}

func TestTransformWithoutImport(t *testing.T) {
	source := "import other from 'handlebars';\nconst t = hbs('x');\n"

	result := run(t, source)

	assert.False(t, result.Changed)
	assert.Equal(t, source, result.Code)
	assert.Empty(t, result.Binding)
}

func TestTransformIsIdempotent(t *testing.T) {
	first := run(t, "import hbs from 'handlebars-inline-precompile';\nhbs`a`;\nhbs('b');\n")

	second := run(t, first.Code)

	assert.False(t, second.Changed)
	assert.Equal(t, first.Code, second.Code)
}

func TestTransformTemplateFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "card.hbs"), []byte("<div>{{title}}</div>"), 0o600))
	filename := filepath.Join(dir, "app.js")

	fromFile, err := newPlugin().TransformFile(filename,
		[]byte("import hbs from 'handlebars-inline-precompile';\nhbs('./templates/card.hbs');\n"))
	require.NoError(t, err)
	inline, err := newPlugin().TransformFile(filename,
		[]byte("import hbs from 'handlebars-inline-precompile';\nhbs('<div>{{title}}</div>');\n"))
	require.NoError(t, err)

	assert.Equal(t, inline.Code, fromFile.Code)
}

func TestTransformTemplateFileAbsolute(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "abs.hbs")
	require.NoError(t, os.WriteFile(template, []byte("abs"), 0o600))

	source := "import hbs from 'handlebars-inline-precompile';\nhbs(" + strconv.Quote(template) + ");\n"
	result, err := newPlugin().TransformFile("/elsewhere/app.js", []byte(source))

	require.NoError(t, err)
	assert.Contains(t, result.Code, `{"main":"abs"}`)
}

type mapFS map[string]string

func (m mapFS) ReadFile(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return []byte(data), nil
}

func TestTransformTemplateFileSystem(t *testing.T) {
	plugin := transform.New(transform.Options{
		Precompiler: quoting,
		FS:          mapFS{filepath.Join("/src", "views", "row.hbs"): "<tr>{{cell}}</tr>"},
	})

	result, err := plugin.TransformFile(filepath.Join("/src", "app.js"),
		[]byte("import hbs from 'handlebars-inline-precompile';\nhbs('views/row.hbs');\n"))

	require.NoError(t, err)
	assert.Contains(t, result.Code, `Handlebars0.template({"main":"<tr>{{cell}}</tr>"})`)
}

func TestTransformTaggedTemplateIsNotAFile(t *testing.T) {
	result := run(t, "import hbs from 'handlebars-inline-precompile';\nhbs`./missing.hbs`;\n")

	assert.Contains(t, result.Code, `{"main":"./missing.hbs"}`)
}

func TestTransformMissingTemplateFile(t *testing.T) {
	err := runErr(t, "import hbs from 'handlebars-inline-precompile';\nhbs('./missing.hbs');\n")

	assert.ErrorIs(t, err, fs.ErrNotExist)
	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, filepath.Join("/src", "missing.hbs"), pathErr.Path)
}

func TestTransformArgumentShape(t *testing.T) {
	tests := []struct {
		name  string
		usage string
	}{
		{"no arguments", "hbs()"},
		{"two arguments", "hbs('a', 'b')"},
		{"identifier argument", "hbs(name)"},
		{"template argument", "hbs(`a`)"},
		{"number argument", "hbs(42)"},
		{"nested call", "hbs(hbs('a'))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runErr(t, "import hbs from 'handlebars-inline-precompile';\nconst t = "+tt.usage+";\n")

			assert.ErrorIs(t, err, transform.ErrInvalidArguments)
			var shapeErr *transform.ArgumentShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, "hbs should be invoked with a single argument: the template string", shapeErr.Message())
			assert.Equal(t, "hbs", shapeErr.Callee)
			assert.Equal(t, tt.usage, shapeErr.Source)
			assert.Equal(t, 2, shapeErr.Loc.Line)
			assert.Equal(t, 10, shapeErr.Loc.Column)
			assert.Contains(t, shapeErr.Frame, "> 2 | const t = "+tt.usage+";")
		})
	}
}

func TestTransformInterpolation(t *testing.T) {
	err := runErr(t, "import hbs from 'handlebars-inline-precompile';\nconst t = hbs`Hello ${name}`;\n")

	assert.ErrorIs(t, err, transform.ErrInterpolation)
	var interpErr *transform.InterpolationNotSupportedError
	require.ErrorAs(t, err, &interpErr)
	assert.Equal(t, "placeholders inside a tagged template string are not supported", interpErr.Message())
	assert.Equal(t, "hbs`Hello ${name}`", interpErr.Source)
	assert.Equal(t, "/src/app.js:2:10: placeholders inside a tagged template string are not supported\n"+
		"  1 | import hbs from 'handlebars-inline-precompile';\n"+
		"> 2 | const t = hbs`Hello ${name}`;\n"+
		"    |           "+strings.Repeat("^", len("hbs`Hello ${name}`"))+"\n"+
		"  3 |", err.Error())
}

func TestTransformSyntaxError(t *testing.T) {
	err := runErr(t, "import hbs from 'handlebars-inline-precompile';\nconst x = hbs('ok') +;\nfoo(\n")

	assert.ErrorIs(t, err, transform.ErrSyntax)
	var syntaxErr *transform.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 2, syntaxErr.Loc.Line)
	assert.Contains(t, syntaxErr.Message(), "Syntax error")
	assert.Contains(t, syntaxErr.Frame, "> 2 | const x = hbs('ok') +;")
}

func TestTransformSyntaxErrorWithoutImport(t *testing.T) {
	source := "const x = 1 +;\n"

	result := run(t, source)

	assert.False(t, result.Changed)
	assert.Equal(t, source, result.Code)
}

func TestTransformImportShape(t *testing.T) {
	tests := []string{
		"import { hbs } from 'handlebars-inline-precompile';",
		"import * as hbs from 'handlebars-inline-precompile';",
		"import 'handlebars-inline-precompile';",
		"import hbs, { extra } from 'handlebars-inline-precompile';",
	}
	for _, statement := range tests {
		t.Run(statement, func(t *testing.T) {
			err := runErr(t, statement+"\n")

			assert.ErrorIs(t, err, transform.ErrUnsupportedImport)
			var shapeErr *transform.ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, "Only `import hbs from 'handlebars-inline-precompile'` is supported. You used: `"+statement+"`",
				shapeErr.Message())
			assert.Equal(t, 1, shapeErr.Loc.Line)
			assert.Equal(t, 0, shapeErr.Loc.Column)
		})
	}
}

func TestTransformDuplicateImport(t *testing.T) {
	err := runErr(t, "import hbs from 'handlebars-inline-precompile';\n"+
		"import tpl from 'handlebars-inline-precompile';\n")

	assert.ErrorIs(t, err, transform.ErrDuplicateImport)
	var dupErr *transform.DuplicateImportError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "hbs", dupErr.Binding)
	assert.Equal(t, 1, dupErr.First.Line)
	assert.Equal(t, 2, dupErr.Loc.Line)
}

func TestTransformPrecompileErrorPropagates(t *testing.T) {
	want := &precompile.Error{Backend: "test", Message: "Parse error on line 1"}
	plugin := transform.New(transform.Options{
		Precompiler: precompile.Func(func(string) (string, error) { return "", want }),
	})

	_, err := plugin.TransformFile("a.js", []byte("import hbs from 'handlebars-inline-precompile';\nhbs('{{#if}}');\n"))

	var got *precompile.Error
	require.ErrorAs(t, err, &got)
	assert.Same(t, want, got)
}

func TestTransformInvalidPrecompiledOutput(t *testing.T) {
	plugin := transform.New(transform.Options{
		Precompiler: precompile.Func(func(string) (string, error) { return "{oops", nil }),
	})

	_, err := plugin.TransformFile("a.js", []byte("import hbs from 'handlebars-inline-precompile';\nhbs('x');\n"))

	assert.Error(t, err)
}

func TestTransformDefaultsToNative(t *testing.T) {
	plugin := transform.New(transform.Options{})

	result, err := plugin.TransformFile("a.js", []byte("import hbs from 'handlebars-inline-precompile';\nhbs('Hi {{name}}');\n"))

	require.NoError(t, err)
	assert.Contains(t, result.Code, `Handlebars0.template({"compiler":[8,">= 4.3.0"],"main":function(`)
}

func TestTransformFixtureSnapshot(t *testing.T) {
	filename := filepath.Join("testdata", "app.js")
	source, err := os.ReadFile(filename)
	require.NoError(t, err)

	result, err := newPlugin().TransformFile(filename, source)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Replacements)
	snaps.MatchSnapshot(t, result.Code)
}

func TestTransformConcurrentFiles(t *testing.T) {
	plugin := newPlugin()
	errs := make(chan error, 8)
	for i := range 8 {
		go func() {
			source := "import hbs from 'handlebars-inline-precompile';\nhbs('" + strconv.Itoa(i) + "');\n"
			result, err := plugin.TransformFile("a.js", []byte(source))
			if err == nil && !strings.Contains(result.Code, `{"main":"`+strconv.Itoa(i)+`"}`) {
				err = errors.New("output mixed between files")
			}
			errs <- err
		}()
	}
	for range 8 {
		assert.NoError(t, <-errs)
	}
}

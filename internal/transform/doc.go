// Package transform rewrites JavaScript modules that import
// handlebars-inline-precompile, replacing each inline template with a call
// to handlebars/runtime's template() carrying the precompiled template.
//
// Three source forms are accepted:
//
//	import hbs from 'handlebars-inline-precompile';
//
//	const a = hbs('Hello {{name}}');
//	const b = hbs`Hello {{name}}`;
//	const c = hbs('./greeting.hbs'); // read relative to the module
//
// which become
//
//	import Handlebars0 from 'handlebars/runtime';
//
//	const a = Handlebars0.template({"compiler":[8,">= 4.3.0"],"main":...});
//
// Any other use of the import is rejected with a diagnostic pointing at the
// offending code.
package transform

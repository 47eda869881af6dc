// Package sailfish implements a compile-time HTML template compiler.
//
// Templates mix literal text with embedded Go expressions and Go
// control-flow statements. Compile turns a template's source into a Go
// statement block that, at render time, appends into a runtime.Buffer
// with no parsing, variable lookup, or interpretive dispatch left to do.
// The companion render runtime lives in the runtime subpackage.
//
// A tiny example:
//
//	Hello, <%= name %>!
//	<% for _, x := range xs { %><%= x %>,<% } %>
//
// Compiling that template and feeding it through gofmt-compatible Go
// source yields a function body that appends directly into a
// runtime.Buffer; no template is parsed again at request time.
package sailfish

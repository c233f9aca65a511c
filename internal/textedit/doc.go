// Package textedit rewrites the raw markup of renderer text fields.
//
// Field text carries inline directives such as {fontsize-4} or {kerning2}.
// Every edit here is idempotent: a directive is replaced in place when present
// and prepended otherwise, so reapplying a plan to already edited text is a
// no-op.
package textedit

// Package commit models Conventional Commits messages and converts between
// the structured form and canonical text.
//
// Construction validates every field, so Unparse is total: any value built
// through NewHeader, NewBody, NewFooter and New renders without error, and
// Parse reads the rendered text back to an equal value.
package commit

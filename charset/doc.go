// Package charset resolves the text encoding of a buffered HTTP message
// body and decodes it to a string.
//
// Resolution follows the declared charset from the Content-Type header
// when one is present (an unrecognized name is an error, never a silent
// fallback). Without a declared charset the leading bytes are sniffed for
// a byte-order mark; when nothing matches, UTF-8 is assumed. That default
// is a heuristic policy, not detection; a document without a mark could
// be encoded otherwise.
//
// The package is stateless: both Resolve and Decode are pure functions of
// their inputs.
package charset

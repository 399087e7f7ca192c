/*
Package testutil provides common test utilities shared across this module's
_test.go files: tolerance-based float and matrix comparisons, and a
golden-JSON-file comparator for clipio's round-trip tests. Not intended for
use outside this module's own tests.
*/
package testutil

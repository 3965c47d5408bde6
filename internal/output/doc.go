// Package output writes chartbump's files: rewritten chart manifests and
// the pending-bump state document.
//
// [FileWriter] replaces a file by writing a sibling temporary file and
// renaming it over the target, so an interrupted run never leaves a
// truncated Chart.yaml or state document behind. [StdoutWriter] sends the
// same bytes to a stream and backs dry runs.
package output

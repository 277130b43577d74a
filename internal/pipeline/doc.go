// Package pipeline schedules one asset run: it enumerates the input tree,
// fans relative paths out to a fixed pool of workers, and folds each file's
// Outcome into a Summary.
//
// Each worker owns its job end to end. It classifies the file, writes the
// unmodified original, and then either re-encodes the decoded image into every
// target or writes one compressed sibling per codec. Failures below the run
// level become Failure records on the Outcome and never stop sibling jobs.
// Only the preconditions (input root, output root, run lock) abort a run.
package pipeline

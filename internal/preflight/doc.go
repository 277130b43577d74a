// Package preflight provides readiness checks for the filesystem paths an
// asset run depends on.
//
// These checks run in two contexts:
//   - The pipeline runner logs them before a run starts so a doomed run is
//     visible up front.
//   - The CLI "assetprep check" command renders each Result as a status line.
//
// Checks never mutate the filesystem.
package preflight

// Package updater decides whether to look for an update, runs the
// authenticated download pipeline and records the outcome.
//
// A run moves through fixed stages; a failure is reported as a StageError
// naming the stage it happened in. The live installation is only touched by
// the final swap, so an aborted run leaves it as it was.
package updater

// Test file for the progress package.
//
// Globals mutated: none. The bar renders to stderr, which the test
// framework tolerates.
package progress

import "testing"

func TestTracker(t *testing.T) {
	tr := NewTracker(2, "scanning")
	tr.Describe("scanning nginx:1.25")
	tr.Increment()
	tr.Increment()
	tr.Finish()
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Tracker
	tr.Describe("ignored")
	tr.Increment()
	tr.Finish()
}

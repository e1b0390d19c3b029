package main

import "time"

// timerEntry records the wall-clock duration of one named phase.
type timerEntry struct {
	name    string
	elapsed time.Duration
}

// timerReport is an ordered sequence of phase timings, printed as a summary
// once translation of a binary completes.
type timerReport []timerEntry

// print writes the timer report to the debug log.
func (r timerReport) print() {
	dbg.Println("=== [ timer report ] ===")
	var total time.Duration
	for _, e := range r {
		dbg.Printf("   %-20s %v", e.name, e.elapsed)
		total += e.elapsed
	}
	dbg.Printf("   %-20s %v", "total", total)
}

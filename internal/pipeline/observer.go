package pipeline

// Observer receives run progress. Completed is always called from a single
// goroutine. Enumerated is called once, before any job is scheduled.
type Observer interface {
	// Enumerated reports the number of files found by a counting walk of the
	// input tree. Files that appear or vanish afterwards are not reflected.
	Enumerated(total int)
	// Completed reports one finished job.
	Completed(o Outcome)
}

type nopObserver struct{}

func (nopObserver) Enumerated(int)    {}
func (nopObserver) Completed(Outcome) {}

package pipeline

// Tracker receives progress from a pipeline run. Methods are called from
// concurrent goroutines.
type Tracker interface {
	SetStatus(status JobStatus, phase string)
	SetTotalChunks(n int)
	IncrChunksSegmented()
	SetTotalDescriptions(n int)
	IncrListingsStructured()
}

type nopTracker struct{}

func (nopTracker) SetStatus(JobStatus, string) {}
func (nopTracker) SetTotalChunks(int)          {}
func (nopTracker) IncrChunksSegmented()        {}
func (nopTracker) SetTotalDescriptions(int)    {}
func (nopTracker) IncrListingsStructured()     {}

package compute

// Event tracks the completion of one dispatch.
type Event struct {
	done chan struct{}
}

func newEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Wait blocks until the dispatch has completed.
func (e *Event) Wait() {
	<-e.done
}

// Done returns a channel that is closed when the dispatch has completed.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

func (e *Event) complete() {
	close(e.done)
}

package session

// enqueue appends fn to the event queue. Callers hold s.mu so that queue
// order matches transition order.
func (s *Supervisor) enqueue(fn func()) {
	s.queueMu.Lock()
	s.queue = append(s.queue, fn)
	s.queueMu.Unlock()
}

// drain runs queued events until the queue is empty. Only one goroutine
// drains at a time; a nested or concurrent call returns immediately and
// leaves its events to the active drainer.
func (s *Supervisor) drain() {
	s.queueMu.Lock()

	if s.draining {
		s.queueMu.Unlock()

		return
	}

	s.draining = true

	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]

		s.queueMu.Unlock()
		fn()
		s.queueMu.Lock()
	}

	s.draining = false
	s.queueMu.Unlock()
}

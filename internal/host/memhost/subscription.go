package memhost

// signal is an ordered list of handlers that can be blocked individually.
type signal[F any] struct {
	handlers []*handler[F]
}

type handler[F any] struct {
	fn      F
	blocked int
	owner   *signal[F]
}

func (s *signal[F]) connect(fn F) *handler[F] {
	h := &handler[F]{fn: fn, owner: s}
	s.handlers = append(s.handlers, h)
	return h
}

// active returns the handlers that should see an emission, snapshotted so
// handlers may connect or disconnect during delivery.
func (s *signal[F]) active() []F {
	out := make([]F, 0, len(s.handlers))
	for _, h := range s.handlers {
		if h.blocked == 0 {
			out = append(out, h.fn)
		}
	}
	return out
}

func (s *signal[F]) len() int {
	return len(s.handlers)
}

func (h *handler[F]) Block() {
	h.blocked++
}

func (h *handler[F]) Unblock() {
	if h.blocked > 0 {
		h.blocked--
	}
}

func (h *handler[F]) Unsubscribe() {
	if h.owner == nil {
		return
	}
	hs := h.owner.handlers
	for i, other := range hs {
		if other == h {
			h.owner.handlers = append(hs[:i:i], hs[i+1:]...)
			break
		}
	}
	h.owner = nil
}

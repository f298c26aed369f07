package billing

import (
	"context"
	"sync"
)

// IssuerSequencer serializa, dentro del proceso, los envíos de un mismo NIF emisor.
// No sustituye al encadenamiento: el llamador sigue aportando el registro anterior.
type IssuerSequencer struct {
	mu    sync.Mutex
	slots map[string]*issuerSlot
}

type issuerSlot struct {
	ch   chan struct{}
	refs int
}

// NewIssuerSequencer crea el secuenciador.
func NewIssuerSequencer() *IssuerSequencer {
	return &IssuerSequencer{slots: make(map[string]*issuerSlot)}
}

// Acquire bloquea hasta obtener el turno del NIF o hasta que ctx termine.
// La función devuelta libera el turno y debe llamarse exactamente una vez.
func (s *IssuerSequencer) Acquire(ctx context.Context, nif string) (func(), error) {
	s.mu.Lock()
	slot, ok := s.slots[nif]
	if !ok {
		slot = &issuerSlot{ch: make(chan struct{}, 1)}
		s.slots[nif] = slot
	}
	slot.refs++
	s.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		s.release(nif, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			s.release(nif, slot)
		})
	}, nil
}

func (s *IssuerSequencer) release(nif string, slot *issuerSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(s.slots, nif)
	}
}

// Pending número de NIF con envíos en curso o en espera.
func (s *IssuerSequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

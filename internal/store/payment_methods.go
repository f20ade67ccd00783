package store

import (
	"context"
	"fmt"
	"strings"

	"tiledash/internal/core"
)

// PaymentMethods returns a copy of the payment methods.
func (s *Store) PaymentMethods() []core.PaymentMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.PaymentMethod{}, s.data.PaymentMethods...)
}

func (s *Store) paymentMethodIndex(id int64) int {
	for i, p := range s.data.PaymentMethods {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// duplicate reports whether another method shares p's name and type,
// ignoring case and surrounding space. Caller holds the lock.
func (s *Store) duplicate(p core.PaymentMethod) bool {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	for _, o := range s.data.PaymentMethods {
		if o.ID != p.ID && o.MethodType == p.MethodType && strings.ToLower(strings.TrimSpace(o.Name)) == name {
			return true
		}
	}
	return false
}

// AddPaymentMethod assigns an id and appends p.
func (s *Store) AddPaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	if err := p.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	s.mu.Lock()
	p.ID = 0
	if s.duplicate(p) {
		s.mu.Unlock()
		return core.PaymentMethod{}, fmt.Errorf("%s (%s): %w", p.Name, p.MethodType, ErrDuplicatePaymentMethod)
	}
	p.ID = s.nextPaymentMethodID()
	s.data.PaymentMethods = append(s.data.PaymentMethods, p)
	s.mu.Unlock()
	return p, s.changed(ctx, KeyPaymentMethods)
}

func (s *Store) nextPaymentMethodID() int64 {
	id := s.now().UnixMilli()
	for _, p := range s.data.PaymentMethods {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}

// UpdatePaymentMethod replaces the method with p.ID.
func (s *Store) UpdatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	if err := p.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	s.mu.Lock()
	i := s.paymentMethodIndex(p.ID)
	if i < 0 {
		s.mu.Unlock()
		return core.PaymentMethod{}, fmt.Errorf("payment method %d: %w", p.ID, ErrNotFound)
	}
	if s.duplicate(p) {
		s.mu.Unlock()
		return core.PaymentMethod{}, fmt.Errorf("%s (%s): %w", p.Name, p.MethodType, ErrDuplicatePaymentMethod)
	}
	s.data.PaymentMethods[i] = p
	s.mu.Unlock()
	return p, s.changed(ctx, KeyPaymentMethods)
}

// DeletePaymentMethod removes a method and nulls creditCardId on its tiles.
func (s *Store) DeletePaymentMethod(ctx context.Context, id int64) error {
	s.mu.Lock()
	i := s.paymentMethodIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("payment method %d: %w", id, ErrNotFound)
	}
	s.data.PaymentMethods = append(s.data.PaymentMethods[:i], s.data.PaymentMethods[i+1:]...)
	tilesChanged := false
	for j := range s.data.Tiles {
		if c := s.data.Tiles[j].CreditCardID; c != nil && *c == id {
			s.data.Tiles[j].CreditCardID = nil
			tilesChanged = true
		}
	}
	s.mu.Unlock()
	keys := []string{KeyPaymentMethods}
	if tilesChanged {
		keys = append(keys, KeyTiles)
	}
	return s.changed(ctx, keys...)
}

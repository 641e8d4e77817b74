// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

// Tiered reads through a fast front store to a shared back store and
// backfills the front on a back hit. Writes go to both.
type Tiered struct {
	front Store
	back  Store
}

// NewTiered layers front over back.
func NewTiered(front, back Store) *Tiered {
	return &Tiered{front: front, back: back}
}

func (t *Tiered) Get(key string) (string, bool) {
	if v, ok := t.front.Get(key); ok {
		return v, true
	}
	v, ok := t.back.Get(key)
	if !ok {
		return "", false
	}
	t.front.Set(key, v)
	return v, true
}

func (t *Tiered) Set(key, value string) {
	t.front.Set(key, value)
	t.back.Set(key, value)
}

// Len reports the front store size.
func (t *Tiered) Len() int { return t.front.Len() }

// Stats reports the front store statistics.
func (t *Tiered) Stats() Stats { return t.front.Stats() }

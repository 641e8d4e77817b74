// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

// AddPreparedListener registers l. Duplicates are allowed.
func (p *Player) AddPreparedListener(l PreparedListener) { p.prepared.add(l) }

// RemovePreparedListener removes the first registration of l.
func (p *Player) RemovePreparedListener(l PreparedListener) { p.prepared.remove(l) }

// AddCompletionListener registers l.
func (p *Player) AddCompletionListener(l CompletionListener) { p.completion.add(l) }

// RemoveCompletionListener removes the first registration of l.
func (p *Player) RemoveCompletionListener(l CompletionListener) { p.completion.remove(l) }

// AddBufferingUpdateListener registers l and starts the buffering loop if
// the source is ready or buffering.
func (p *Player) AddBufferingUpdateListener(l BufferingUpdateListener) {
	p.bufferingUpdate.add(l)
	p.maybeStartBufferingLoop()
}

// RemoveBufferingUpdateListener removes the first registration of l. The
// loop stops with the last listener.
func (p *Player) RemoveBufferingUpdateListener(l BufferingUpdateListener) {
	p.bufferingUpdate.remove(l)
	if p.bufferingUpdate.len() == 0 {
		p.repeater.Stop()
	}
}

// AddSeekCompleteListener registers l.
func (p *Player) AddSeekCompleteListener(l SeekCompleteListener) { p.seekComplete.add(l) }

// RemoveSeekCompleteListener removes the first registration of l.
func (p *Player) RemoveSeekCompleteListener(l SeekCompleteListener) { p.seekComplete.remove(l) }

// AddVideoSizeChangedListener registers l.
func (p *Player) AddVideoSizeChangedListener(l VideoSizeChangedListener) { p.sizeChanged.add(l) }

// RemoveVideoSizeChangedListener removes the first registration of l.
func (p *Player) RemoveVideoSizeChangedListener(l VideoSizeChangedListener) {
	p.sizeChanged.remove(l)
}

// AddErrorListener registers l.
func (p *Player) AddErrorListener(l ErrorListener) { p.errorListeners.add(l) }

// RemoveErrorListener removes the first registration of l.
func (p *Player) RemoveErrorListener(l ErrorListener) { p.errorListeners.remove(l) }

// AddInfoListener registers l.
func (p *Player) AddInfoListener(l InfoListener) { p.info.add(l) }

// RemoveInfoListener removes the first registration of l.
func (p *Player) RemoveInfoListener(l InfoListener) { p.info.remove(l) }

// Observe registers o for every listener interface it implements.
func (p *Player) Observe(o any) {
	if l, ok := o.(PreparedListener); ok {
		p.AddPreparedListener(l)
	}
	if l, ok := o.(CompletionListener); ok {
		p.AddCompletionListener(l)
	}
	if l, ok := o.(BufferingUpdateListener); ok {
		p.AddBufferingUpdateListener(l)
	}
	if l, ok := o.(SeekCompleteListener); ok {
		p.AddSeekCompleteListener(l)
	}
	if l, ok := o.(VideoSizeChangedListener); ok {
		p.AddVideoSizeChangedListener(l)
	}
	if l, ok := o.(ErrorListener); ok {
		p.AddErrorListener(l)
	}
	if l, ok := o.(InfoListener); ok {
		p.AddInfoListener(l)
	}
}

// Unobserve removes one registration of o from every registry it was
// added to by Observe.
func (p *Player) Unobserve(o any) {
	if l, ok := o.(PreparedListener); ok {
		p.RemovePreparedListener(l)
	}
	if l, ok := o.(CompletionListener); ok {
		p.RemoveCompletionListener(l)
	}
	if l, ok := o.(BufferingUpdateListener); ok {
		p.RemoveBufferingUpdateListener(l)
	}
	if l, ok := o.(SeekCompleteListener); ok {
		p.RemoveSeekCompleteListener(l)
	}
	if l, ok := o.(VideoSizeChangedListener); ok {
		p.RemoveVideoSizeChangedListener(l)
	}
	if l, ok := o.(ErrorListener); ok {
		p.RemoveErrorListener(l)
	}
	if l, ok := o.(InfoListener); ok {
		p.RemoveInfoListener(l)
	}
}

// ClearListeners empties every registry and stops the buffering loop.
func (p *Player) ClearListeners() {
	p.prepared.clear()
	p.completion.clear()
	p.bufferingUpdate.clear()
	p.seekComplete.clear()
	p.sizeChanged.clear()
	p.errorListeners.clear()
	p.info.clear()
	p.repeater.Stop()
}

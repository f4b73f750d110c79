package method

// defaultRingBufferSize matches the original implementation's fixed
// 100-slot history of previous spoofing indicators.
const defaultRingBufferSize = 100

// Averaged wraps a Method and reports the arithmetic mean of its last N
// spoofing indicators instead of the raw value, smoothing out single-shot
// noise. The ring buffer starts zero-filled, so the average stays low
// until enough real measurements have accumulated.
type Averaged struct {
	wrapped Method
	size    int
	history []float64
}

// NewAveraged wraps method with a ring buffer of size slots. size <= 0
// falls back to defaultRingBufferSize.
func NewAveraged(wrapped Method, size int) *Averaged {
	if size <= 0 {
		size = defaultRingBufferSize
	}
	return &Averaged{
		wrapped: wrapped,
		size:    size,
		history: make([]float64, size),
	}
}

func (a *Averaged) Gating() Gating {
	return a.wrapped.Gating()
}

func (a *Averaged) SpoofingIndicator(ctx Context) float64 {
	indicator := a.wrapped.SpoofingIndicator(ctx)
	a.history = append([]float64{indicator}, a.history...)
	if len(a.history) > a.size {
		a.history = a.history[:a.size]
	}
	sum := 0.0
	for _, v := range a.history {
		sum += v
	}
	return sum / float64(len(a.history))
}

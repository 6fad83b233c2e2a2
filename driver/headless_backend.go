//go:build headless

package driver

// OtoBackend is the headless stand-in for the real oto-backed output,
// used by tests and offline rendering where no audio device exists.
// Render must be called explicitly by whatever is driving the
// headless session; nothing pulls on its own.
type OtoBackend struct {
	driver  *Driver
	started bool
}

// NewOtoBackend returns a backend with no audio device behind it.
func NewOtoBackend(sampleRate, channels int) (*OtoBackend, error) {
	return &OtoBackend{}, nil
}

// Attach wires d as the driver Render pulls from.
func (b *OtoBackend) Attach(d *Driver) { b.driver = d }

// Start marks the backend as playing; has no real device effect.
func (b *OtoBackend) Start() { b.started = true }

// Stop marks the backend as paused; has no real device effect.
func (b *OtoBackend) Stop() { b.started = false }

// Close marks the backend as stopped.
func (b *OtoBackend) Close() { b.started = false }

// IsStarted reports whether Start has been called more recently than
// Stop or Close.
func (b *OtoBackend) IsStarted() bool { return b.started }

// Render asks the attached Driver to fill out, letting a headless host
// pull rendered audio on its own schedule instead of through a real
// device callback.
func (b *OtoBackend) Render(out []float32) {
	if b.driver != nil {
		b.driver.Render(out)
	}
}

// Package progress provides a unified interface for progress reporting
// across CLI (progress bars) and observer (event bus) consumers.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/chatsweep/chatsweep/internal/events"
	"github.com/chatsweep/chatsweep/internal/state"
)

// Reporter reports fetch progress. Implementations must tolerate Start
// being called with total -1 when the number of records is unknown.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
}

// CLI renders a progress bar to stderr, or a spinner when the total is
// unknown. When stderr is not a terminal it stays silent.
type CLI struct {
	bar *progressbar.ProgressBar
}

// NewCLI creates a CLI progress reporter.
func NewCLI() *CLI {
	return &CLI{}
}

// Start initializes the progress bar.
func (p *CLI) Start(total int64, description string) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return
	}
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to the current position.
func (p *CLI) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes and clears the bar.
func (p *CLI) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// Bus republishes progress as list loading events for observers that render
// their own indicators.
type Bus struct {
	bus *events.Bus
}

// NewBus creates an event-bus progress reporter.
func NewBus(bus *events.Bus) *Bus {
	return &Bus{bus: bus}
}

func (p *Bus) Start(total int64, description string) {
	p.bus.Publish(state.NewListLoadingEvent(true))
}

func (p *Bus) Update(current int64) {}

func (p *Bus) Finish() {
	p.bus.Publish(state.NewListLoadingEvent(false))
}

// Noop discards all progress.
type Noop struct{}

func (Noop) Start(total int64, description string) {}
func (Noop) Update(current int64)                  {}
func (Noop) Finish()                               {}

package sound

import "fmt"

// Command is one request for the dispatcher. The set of variants is closed.
type Command interface {
	command()
	// Kind returns a short label used in logs and metrics
	Kind() string
}

// Load asks the engine to load a resource if it is not cached yet
type Load struct {
	ID ResourceID
}

// Play starts a cached resource. Volume applies to both channels.
type Play struct {
	ID          ResourceID
	Volume      float64
	Repetitions int
}

// Unload frees a cached resource
type Unload struct {
	ID ResourceID
}

// Cancel stops the dispatcher and releases the engine. It is terminal.
type Cancel struct{}

// flush is a barrier: the dispatcher closes done when it reaches it
type flush struct {
	done chan struct{}
}

func (Load) command()   {}
func (Play) command()   {}
func (Unload) command() {}
func (Cancel) command() {}
func (flush) command()  {}

func (Load) Kind() string   { return "load" }
func (Play) Kind() string   { return "play" }
func (Unload) Kind() string { return "unload" }
func (Cancel) Kind() string { return "cancel" }
func (flush) Kind() string  { return "flush" }

func (c Load) String() string   { return fmt.Sprintf("Load(%d)", c.ID) }
func (c Unload) String() string { return fmt.Sprintf("Unload(%d)", c.ID) }
func (Cancel) String() string   { return "Cancel()" }

func (c Play) String() string {
	return fmt.Sprintf("Play(%d, %.2f, %d)", c.ID, c.Volume, c.Repetitions)
}

package signature

// Event is one pointer sample in a recorded trace.
type Event struct {
	Type string  `json:"type"` // down | move | up | cancel | leave
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Apply replays a pointer trace on the pad and returns the value the final
// stroke end emitted: the encoded image, or "" when the trace laid no ink.
func Apply(p *Pad, events []Event) string {
	out := p.current()
	for _, e := range events {
		switch e.Type {
		case "down":
			p.PointerDown(Point{X: e.X, Y: e.Y})
		case "move":
			p.PointerMove(Point{X: e.X, Y: e.Y})
		case "up":
			out = p.PointerUp()
		case "cancel":
			out = p.PointerCancel()
		case "leave":
			out = p.PointerLeave()
		}
	}
	return out
}

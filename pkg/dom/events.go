package dom

import "golang.org/x/net/html"

// Event is a synthetic DOM event.
type Event struct {
	Type    string
	Target  *Element
	Bubbles bool
}

// Listener receives dispatched events. CurrentTarget is nil when the
// listener is attached to the document.
type Listener func(ev Event, currentTarget *Element)

// AddEventListener registers fn for events of type typ on target.
// A nil target registers a document-level listener.
func (d *Document) AddEventListener(target *Element, typ string, fn Listener) {
	key := d.root
	if target != nil {
		key = target.node
	}
	byType, ok := d.listeners[key]
	if !ok {
		byType = make(map[string][]Listener)
		d.listeners[key] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// Dispatch delivers ev to the target's listeners, then, when ev.Bubbles is
// set, to every ancestor's listeners and finally the document's.
func (d *Document) Dispatch(ev Event) {
	d.events = append(d.events, ev)
	if ev.Target == nil {
		d.notify(d.root, ev)
		return
	}
	for n := ev.Target.node; n != nil; n = n.Parent {
		d.notify(n, ev)
		if !ev.Bubbles {
			return
		}
	}
}

// Events returns every event dispatched so far, oldest first.
func (d *Document) Events() []Event {
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

func (d *Document) notify(n *html.Node, ev Event) {
	fns := d.listeners[n][ev.Type]
	if len(fns) == 0 {
		return
	}
	var current *Element
	if n != d.root {
		current = d.wrap(n)
	}
	for _, fn := range fns {
		fn(ev, current)
	}
}

package fairchat

import "sync"

// dispatcher routes inbound frames to registered subscribers. Unlike a
// replace-on-register callback slot, every registration is kept in a list
// and returns an unsubscribe func, so a component that re-registers can
// detach its old handler instead of accumulating duplicates.
type dispatcher struct {
	mu        sync.Mutex
	nextID    int
	onMessage []subscription[MessageEvent]
	onSent    []subscription[MessageEvent]
	onTyping  []subscription[TypingEvent]
	onStop    []subscription[TypingEvent]
	onVisitor []subscription[VisitorEvent]
	onError   []subscription[error]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

func addSub[T any](d *dispatcher, list *[]subscription[T], fn func(T)) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	*list = append(*list, subscription[T]{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range *list {
			if s.id == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

func snapshot[T any](d *dispatcher, list *[]subscription[T]) []func(T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fns := make([]func(T), len(*list))
	for i, s := range *list {
		fns[i] = s.fn
	}
	return fns
}

func (d *dispatcher) subscribeMessage(fn func(MessageEvent)) func() {
	return addSub(d, &d.onMessage, fn)
}

func (d *dispatcher) subscribeSent(fn func(MessageEvent)) func() {
	return addSub(d, &d.onSent, fn)
}

func (d *dispatcher) subscribeTyping(fn func(TypingEvent)) func() {
	return addSub(d, &d.onTyping, fn)
}

func (d *dispatcher) subscribeStopTyping(fn func(TypingEvent)) func() {
	return addSub(d, &d.onStop, fn)
}

func (d *dispatcher) subscribeVisitor(fn func(VisitorEvent)) func() {
	return addSub(d, &d.onVisitor, fn)
}

func (d *dispatcher) subscribeError(fn func(error)) func() {
	return addSub(d, &d.onError, fn)
}

// dispatch decodes a frame and invokes subscribers in registration order.
// A payload that fails to decode is reported through the error subscribers
// and never breaks the handler chain.
func (d *dispatcher) dispatch(fr recvFrame) {
	if fr.Event == eventError && fr.Error != nil {
		d.fireError(FromProtocolError(fr.Error))
		return
	}
	switch fr.Event {
	case eventReceive:
		dispatchTo(d, snapshot(d, &d.onMessage), fr, "receive_message")
	case eventSent:
		dispatchTo(d, snapshot(d, &d.onSent), fr, "message_sent")
	case eventTyping:
		dispatchTo(d, snapshot(d, &d.onTyping), fr, "user_typing")
	case eventStopTyping:
		dispatchTo(d, snapshot(d, &d.onStop), fr, "user_stop_typing")
	case eventNewVisitor:
		dispatchTo(d, snapshot(d, &d.onVisitor), fr, "new_visitor")
	}
}

func dispatchTo[T any](d *dispatcher, fns []func(T), fr recvFrame, name string) {
	if len(fns) == 0 {
		return
	}
	var ev T
	if err := UnmarshalData(fr.Data, &ev); err != nil {
		d.fireError(WrapError(ErrorSerialization, "failed to unmarshal "+name+" event", err))
		return
	}
	for _, fn := range fns {
		fn(ev)
	}
}

func (d *dispatcher) fireError(err error) {
	if err == nil {
		return
	}
	for _, fn := range snapshot(d, &d.onError) {
		fn(err)
	}
}

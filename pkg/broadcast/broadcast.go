package broadcast

import "sync"

// Broadcaster fans events out to every registered listener without
// blocking the sender. A listener which is not keeping up misses
// events rather than stalling the capture loop.
type Broadcaster struct {
	mu        sync.Mutex
	buffer    int
	listeners []*Listener
}

type Listener struct {
	Ch chan interface{}
}

func New(buffer int) *Broadcaster {
	return &Broadcaster{buffer: buffer}
}

func (b *Broadcaster) Listen() *Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := &Listener{Ch: make(chan interface{}, b.buffer+1)}
	b.listeners = append(b.listeners, l)
	return l
}

func (b *Broadcaster) Send(evt interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.listeners {
		select {
		case l.Ch <- evt:
		default:
		}
	}
}

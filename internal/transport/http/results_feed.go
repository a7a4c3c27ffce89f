package http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"lms-assessment-service/internal/domain"
)

// ResultFeed fans quiz_result events out to websocket subscribers, one
// channel of interest per quiz. It implements app.Notifier, standing in for
// the notification collaborator: instructor dashboards and the certificate
// pipeline both consume this feed.
type ResultFeed struct {
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[string]map[chan domain.ResultEvent]struct{}
}

func NewResultFeed() *ResultFeed {
	return &ResultFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[chan domain.ResultEvent]struct{}),
	}
}

// PublishResult delivers ev to every subscriber of its quiz. Slow
// subscribers lose their oldest undelivered event rather than blocking the
// submission path.
func (f *ResultFeed) PublishResult(_ context.Context, ev domain.ResultEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs[ev.QuizID] {
		select {
		case ch <- ev:
		default:
			// Full buffer: drain one and retry. A racing publisher may claim
			// the freed slot, so the retry must not block either; in that
			// case this event is dropped.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func (f *ResultFeed) subscribe(quizID string) (chan domain.ResultEvent, func()) {
	ch := make(chan domain.ResultEvent, 8)
	f.mu.Lock()
	if f.subs[quizID] == nil {
		f.subs[quizID] = make(map[chan domain.ResultEvent]struct{})
	}
	f.subs[quizID][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[quizID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, quizID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.ResultEvent `json:"payload"`
}

// ServeWS upgrades the request and streams quiz_result events for one quiz
// until the client disconnects.
func (f *ResultFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := f.subscribe(quizID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Reads only surface disconnects; inbound payloads are ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "quiz_result", Payload: ev}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

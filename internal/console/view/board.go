package view

import (
	"html/template"
	"sync"
)

// Panel is the current state of one target.
type Panel struct {
	HTML     template.HTML `json:"html"`
	Text     string        `json:"text,omitempty"`
	Hidden   bool          `json:"hidden"`
	Disabled bool          `json:"disabled"`
	Version  uint64        `json:"version"`
}

// Update is one change pushed to subscribers. Alert updates carry no target.
type Update struct {
	Seq    uint64 `json:"seq"`
	Target Target `json:"target,omitempty"`
	Panel  *Panel `json:"panel,omitempty"`
	Alert  string `json:"alert,omitempty"`
}

// Board is the in-memory Surface shared by the web console and the CLI.
type Board struct {
	mu     sync.Mutex
	seq    uint64
	panels map[Target]Panel
	alerts []string
	subs   map[int]chan Update
	nextID int
}

var initiallyHidden = []Target{ProblemView, ProblemList, HelpOverlay, PushConfirm, LangSelector}

// NewBoard returns a board with overlays and the problem view hidden.
func NewBoard() *Board {
	b := &Board{
		panels: make(map[Target]Panel),
		subs:   make(map[int]chan Update),
	}
	for _, t := range initiallyHidden {
		b.panels[t] = Panel{Hidden: true}
	}
	return b
}

func (b *Board) SetHTML(target Target, html template.HTML) {
	b.mutate(target, func(p *Panel) {
		p.HTML = html
		p.Text = ""
	})
}

func (b *Board) SetText(target Target, text string) {
	b.mutate(target, func(p *Panel) {
		p.HTML = template.HTML(template.HTMLEscapeString(text))
		p.Text = text
	})
}

func (b *Board) SetVisible(target Target, visible bool) {
	b.mutate(target, func(p *Panel) { p.Hidden = !visible })
}

func (b *Board) SetEnabled(target Target, enabled bool) {
	b.mutate(target, func(p *Panel) { p.Disabled = !enabled })
}

// Alert queues a blocking message for the user.
func (b *Board) Alert(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.alerts = append(b.alerts, msg)
	b.broadcast(Update{Seq: b.seq, Alert: msg})
}

func (b *Board) mutate(target Target, fn func(p *Panel)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.panels[target]
	fn(&p)
	b.seq++
	p.Version = b.seq
	b.panels[target] = p
	b.broadcast(Update{Seq: b.seq, Target: target, Panel: &p})
}

// broadcast must be called with mu held. Subscribers that cannot keep up are
// closed and must resync from a snapshot.
func (b *Board) broadcast(u Update) {
	for id, ch := range b.subs {
		select {
		case ch <- u:
		default:
			close(ch)
			delete(b.subs, id)
		}
	}
}

// Panel returns the state of one target.
func (b *Board) Panel(target Target) Panel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.panels[target]
}

// Snapshot returns every panel and the sequence number it reflects.
func (b *Board) Snapshot() (map[Target]Panel, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[Target]Panel, len(b.panels))
	for k, v := range b.panels {
		out[k] = v
	}
	return out, b.seq
}

// Alerts drains the queued alerts.
func (b *Board) Alerts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.alerts
	b.alerts = nil
	return out
}

// Subscribe streams updates made after the call. cancel is idempotent.
func (b *Board) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Update, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if cur, ok := b.subs[id]; ok && cur == ch {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

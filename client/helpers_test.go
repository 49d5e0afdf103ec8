package client

import (
	"sync"
)

// fakeNav 记录导航调用的Navigator测试替身
type fakeNav struct {
	mu       sync.Mutex
	assigns  []string
	replaces []string
}

func (n *fakeNav) Assign(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigns = append(n.assigns, url)
}

func (n *fakeNav) Replace(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replaces = append(n.replaces, url)
}

func (n *fakeNav) Assigns() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.assigns...)
}

func (n *fakeNav) Replaces() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.replaces...)
}

// fakeParent 记录宿主消息的ParentChannel测试替身
type fakeParent struct {
	mu       sync.Mutex
	messages []ParentMessage
	err      error
}

func (p *fakeParent) Notify(msg ParentMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *fakeParent) Messages() []ParentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ParentMessage(nil), p.messages...)
}

func (p *fakeParent) ByAction(action string) []ParentMessage {
	var out []ParentMessage
	for _, m := range p.Messages() {
		if m.Action == action {
			out = append(out, m)
		}
	}
	return out
}

// fakeStorage 记录清理调用的WebStorage测试替身
type fakeStorage struct {
	mu             sync.Mutex
	localCleared   int
	sessionCleared int
}

func (s *fakeStorage) ClearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localCleared++
}

func (s *fakeStorage) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionCleared++
}

func (s *fakeStorage) Cleared() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localCleared, s.sessionCleared
}

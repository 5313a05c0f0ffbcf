package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// TabSetupFunc runs once on each freshly created tab before any job uses
// it. The runner installs stabilization scripts and network blocking here.
type TabSetupFunc func(ctx context.Context) error

// Tab is one pooled page target.
type Tab struct {
	ID     string
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *Tab) Context() context.Context {
	return t.ctx
}

// Pool hands out tabs to concurrent snapshot jobs. Tabs are created lazily
// up to size and reused across jobs; a tab whose context died is replaced
// on the next checkout.
type Pool struct {
	session *Session
	setup   TabSetupFunc
	size    int
	idle    chan *Tab
	create  func() (*Tab, error)

	mu      sync.Mutex
	created int
	tabs    []*Tab
	closed  bool
}

func NewPool(s *Session, size int, setup TabSetupFunc) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		session: s,
		setup:   setup,
		size:    size,
		idle:    make(chan *Tab, size),
	}
	p.create = p.newTab
	return p
}

// Checkout returns an idle tab, creating one if the pool is not yet full.
// Blocks until a tab frees up or ctx is done.
func (p *Pool) Checkout(ctx context.Context) (*Tab, error) {
	for {
		select {
		case tab := <-p.idle:
			if tab.ctx.Err() != nil {
				p.discard(tab)
				continue
			}
			return tab, nil
		default:
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, fmt.Errorf("pool closed")
		}
		if p.created < p.size {
			p.created++
			p.mu.Unlock()
			tab, err := p.create()
			if err != nil {
				p.mu.Lock()
				p.created--
				p.mu.Unlock()
				return nil, err
			}
			p.mu.Lock()
			p.tabs = append(p.tabs, tab)
			p.mu.Unlock()
			return tab, nil
		}
		p.mu.Unlock()

		select {
		case tab := <-p.idle:
			if tab.ctx.Err() != nil {
				p.discard(tab)
				continue
			}
			return tab, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Checkin returns the tab for reuse. Dead tabs are dropped.
func (p *Pool) Checkin(tab *Tab) {
	if tab == nil {
		return
	}
	if tab.ctx != nil && tab.ctx.Err() != nil {
		p.discard(tab)
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.discard(tab)
		return
	}
	select {
	case p.idle <- tab:
	default:
		p.discard(tab)
	}
}

// With checks out a tab, runs fn, and checks it back in.
func (p *Pool) With(ctx context.Context, fn func(*Tab) error) error {
	tab, err := p.Checkout(ctx)
	if err != nil {
		return err
	}
	defer p.Checkin(tab)
	return fn(tab)
}

func (p *Pool) newTab() (*Tab, error) {
	browserCtx := p.session.Context()

	// target.CreateTarget works for both local and remote allocators.
	var targetID target.ID
	createCtx, createCancel := context.WithTimeout(browserCtx, 10*time.Second)
	err := chromedp.Run(createCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		targetID, err = target.CreateTarget("about:blank").Do(ctx)
		return err
	}))
	createCancel()
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}

	ctx, cancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(targetID))
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("attach tab %s: %w", targetID, err)
	}

	if p.setup != nil {
		if err := p.setup(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("tab setup: %w", err)
		}
	}

	return &Tab{ID: string(targetID), ctx: ctx, cancel: cancel}, nil
}

// Peek returns the context of any live tab without checking it out, for
// observers that only watch, like the dashboard preview stream.
func (p *Pool) Peek() (context.Context, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tab := range p.tabs {
		if tab.ctx.Err() == nil {
			return tab.ctx, true
		}
	}
	return nil, false
}

func (p *Pool) discard(tab *Tab) {
	p.mu.Lock()
	p.created--
	for i, t := range p.tabs {
		if t == tab {
			p.tabs = append(p.tabs[:i], p.tabs[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	if tab.cancel != nil {
		tab.cancel()
	}
}

// Close cancels every idle tab. Tabs still checked out die with the session.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case tab := <-p.idle:
			if tab.cancel != nil {
				tab.cancel()
			}
		default:
			return
		}
	}
}

package resolver

import (
	"context"
	"time"
)

// Refresher re-resolves a set of hostnames on a fixed interval.
type Refresher struct {
	resolvers []*BackgroundResolver
	interval  time.Duration
	onResult  Callback
}

func NewRefresher(interval time.Duration, onResult Callback, resolvers ...*BackgroundResolver) *Refresher {
	return &Refresher{resolvers: resolvers, interval: interval, onResult: onResult}
}

// Run resolves every host immediately and then once per interval until ctx
// ends. Lookups still in flight are abandoned on return.
func (f *Refresher) Run(ctx context.Context) {
	f.resolveAll()
	if f.interval <= 0 {
		<-ctx.Done()
		f.abortAll()
		return
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			f.abortAll()
			return
		case <-ticker.C:
			f.resolveAll()
		}
	}
}

func (f *Refresher) resolveAll() {
	for _, r := range f.resolvers {
		r.ResolveNow(f.onResult, nil)
	}
}

func (f *Refresher) abortAll() {
	for _, r := range f.resolvers {
		r.Abort()
	}
}

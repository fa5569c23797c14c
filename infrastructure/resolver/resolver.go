package resolver

import (
	"context"
	"net"
	"net/netip"
	"slices"
	"sync"

	"ethertap/application/logging"
	infraLogging "ethertap/infrastructure/logging"
)

// Lookup resolves host. It may block for as long as the OS resolver does.
type Lookup func(ctx context.Context, host string) ([]netip.Addr, error)

// Callback is told that a resolution finished; results are read with Get.
type Callback func(r *BackgroundResolver, arg any)

func DefaultLookup(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

// job is one lookup running on its own goroutine. Clearing parent abandons
// it: the lookup still runs to completion but its result is dropped.
type job struct {
	mu     sync.Mutex
	parent *BackgroundResolver
	done   chan struct{}
	cb     Callback
	arg    any
}

func (j *job) detach() {
	j.mu.Lock()
	j.parent = nil
	j.mu.Unlock()
}

// BackgroundResolver resolves one hostname off the caller's goroutine.
// Lock order is resolver then job.
type BackgroundResolver struct {
	host   string
	lookup Lookup
	log    logging.Logger

	mu  sync.Mutex
	job *job
	ips []netip.Addr
}

func New(host string, lookup Lookup, log logging.Logger) *BackgroundResolver {
	if lookup == nil {
		lookup = DefaultLookup
	}
	if log == nil {
		log = infraLogging.NewDiscardLogger()
	}
	return &BackgroundResolver{host: host, lookup: lookup, log: log}
}

func (r *BackgroundResolver) Host() string {
	return r.host
}

// ResolveNow abandons any lookup in flight and starts a new one. cb, if not
// nil, runs on the lookup goroutine once results are available.
func (r *BackgroundResolver) ResolveNow(cb Callback, arg any) {
	j := &job{parent: r, done: make(chan struct{}), cb: cb, arg: arg}

	r.mu.Lock()
	r.abandonLocked()
	r.job = j
	r.mu.Unlock()

	go r.run(j)
}

// Abort abandons the lookup in flight, if any, without starting another.
func (r *BackgroundResolver) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandonLocked()
}

func (r *BackgroundResolver) abandonLocked() {
	if r.job != nil {
		r.job.detach()
		r.job = nil
	}
}

// Get returns the addresses of the last lookup that completed without being
// abandoned, sorted.
func (r *BackgroundResolver) Get() []netip.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ips)
}

// Wait blocks until the lookup in flight when it was called has finished.
func (r *BackgroundResolver) Wait() {
	r.mu.Lock()
	j := r.job
	r.mu.Unlock()
	if j != nil {
		<-j.done
	}
}

func (r *BackgroundResolver) run(j *job) {
	defer close(j.done)

	addrs, err := r.lookup(context.Background(), r.host)
	if err != nil {
		r.log.Debugf("lookup of %s failed: %v", r.host, err)
		addrs = nil
	}
	addrs = normalize(addrs)

	j.mu.Lock()
	abandoned := j.parent == nil
	j.mu.Unlock()
	if abandoned {
		return
	}

	r.mu.Lock()
	if r.job != j {
		// abandoned after the check above
		r.mu.Unlock()
		return
	}
	r.ips = addrs
	r.job = nil
	r.mu.Unlock()

	if j.cb != nil {
		j.cb(r, j.arg)
	}
}

func normalize(addrs []netip.Addr) []netip.Addr {
	out := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		if a.IsValid() {
			out = append(out, a.Unmap())
		}
	}
	slices.SortFunc(out, func(a, b netip.Addr) int { return a.Compare(b) })
	return slices.Compact(out)
}

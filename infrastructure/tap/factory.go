package tap

import (
	"errors"
	"sync"

	"ethertap/application/logging"
	"ethertap/application/network/tap"
	infraLogging "ethertap/infrastructure/logging"
	"ethertap/infrastructure/telemetry/trafficstats"

	"golang.org/x/sync/errgroup"
)

// Factory creates taps through one platform Provisioner and keeps track of
// them so they can be torn down together.
type Factory struct {
	env         Environment
	provisioner tap.Provisioner
	log         logging.Logger

	mu   sync.Mutex
	taps map[*Tap]struct{}
}

func NewFactory(env Environment, provisioner tap.Provisioner, log logging.Logger) *Factory {
	if log == nil {
		log = infraLogging.NewDiscardLogger()
	}
	return &Factory{
		env:         env.withDefaults(),
		provisioner: provisioner,
		log:         log,
		taps:        make(map[*Tap]struct{}),
	}
}

func (f *Factory) Environment() Environment {
	return f.env
}

// Open creates a tap and starts tracking it. Errors are those of New.
func (f *Factory) Open(cfg tap.Config, handler tap.FrameHandler) (*Tap, error) {
	t, err := New(cfg, f.provisioner, handler, Options{
		QueueDepth:        f.env.QueueDepth,
		HealthInterval:    f.env.HealthInterval,
		OpenRetryInterval: f.env.OpenRetryInterval,
		Logger:            f.log,
		Traffic:           trafficstats.NewCollector(0, 0.3),
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.taps[t] = struct{}{}
	f.mu.Unlock()

	f.log.Infof("opened tap %s for network %s", t.DeviceName(), cfg.NetworkID)
	return t, nil
}

// Close stops tracking t and destroys it. With destroyPersistent the OS-level
// device registration is removed as well. Taps this factory does not track are
// ignored so cleanup paths may close twice.
func (f *Factory) Close(t *Tap, destroyPersistent bool) error {
	f.mu.Lock()
	_, tracked := f.taps[t]
	delete(f.taps, t)
	f.mu.Unlock()

	if !tracked {
		return nil
	}
	return f.destroy(t, destroyPersistent)
}

// CloseAll destroys every tracked tap concurrently, keeping persistent devices.
func (f *Factory) CloseAll() error {
	f.mu.Lock()
	taps := make([]*Tap, 0, len(f.taps))
	for t := range f.taps {
		taps = append(taps, t)
	}
	clear(f.taps)
	f.mu.Unlock()

	var g errgroup.Group
	for _, t := range taps {
		g.Go(func() error {
			return f.destroy(t, false)
		})
	}
	return g.Wait()
}

// Taps returns the tracked taps in no particular order.
func (f *Factory) Taps() []*Tap {
	f.mu.Lock()
	defer f.mu.Unlock()
	taps := make([]*Tap, 0, len(f.taps))
	for t := range f.taps {
		taps = append(taps, t)
	}
	return taps
}

func (f *Factory) destroy(t *Tap, destroyPersistent bool) error {
	name := t.DeviceName()
	err := t.Close()
	if destroyPersistent {
		err = errors.Join(err, t.driver.Destroy())
	}
	if err != nil {
		f.log.Warnf("failed to close tap %s cleanly: %v", name, err)
		return err
	}
	f.log.Infof("closed tap %s", name)
	return nil
}

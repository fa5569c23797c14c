package shutdown

import (
	"context"
	"os"
	"sync"

	"ethertap/application/logging"
	palSignal "ethertap/infrastructure/PAL/signal"
	infraLogging "ethertap/infrastructure/logging"
	"ethertap/presentation/signals"
)

type Handler struct {
	// appCtx is cancelled on shutdown; the handler stops watching once it is done.
	appCtx       context.Context
	appCtxCancel context.CancelFunc
	// signalChan is buffered: os/signal drops signals on a blocked send.
	signalChan     chan os.Signal
	once           sync.Once
	signalProvider palSignal.Provider
	notifier       signals.Notifier
	log            logging.Logger
}

func NewHandler(
	appCtx context.Context,
	appCtxCancel context.CancelFunc,
	signalProvider palSignal.Provider,
	notifier signals.Notifier,
	log logging.Logger,
) signals.Handler {
	if log == nil {
		log = infraLogging.NewDiscardLogger()
	}
	return &Handler{
		appCtx:         appCtx,
		appCtxCancel:   appCtxCancel,
		signalChan:     make(chan os.Signal, 1),
		signalProvider: signalProvider,
		notifier:       notifier,
		log:            log,
	}
}

// Handle subscribes once and cancels the app context on the first shutdown
// signal.
func (h *Handler) Handle() {
	h.once.Do(func() {
		h.listenAndHandleShutdownSignals()
	})
}

func (h *Handler) listenAndHandleShutdownSignals() {
	h.subscribe()
	go func() {
		defer h.unsubscribe()
		select {
		case sig := <-h.signalChan:
			h.log.Infof("%s received, shutting down", sig)
			h.appCtxCancel()
		case <-h.appCtx.Done():
		}
	}()
}

func (h *Handler) subscribe() {
	h.notifier.Notify(h.signalChan, h.signalProvider.ShutdownSignals()...)
}

func (h *Handler) unsubscribe() {
	h.notifier.Stop(h.signalChan)
}

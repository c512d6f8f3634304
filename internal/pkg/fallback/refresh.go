package fallback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	cron "github.com/robfig/cron/v3"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
)

const refreshTimeout = time.Minute

// Refresher reloads the fallback document on a cron schedule and installs
// it again whenever its content changed.
type Refresher struct {
	cron *cron.Cron
	cfg  *Config
	d    *bridge.Dispatcher

	mu   sync.Mutex
	last string
}

// NewRefresher creates a refresher. current is the document installed at
// startup and may be nil.
func NewRefresher(cfg *Config, d *bridge.Dispatcher, current *Document) *Refresher {
	r := &Refresher{
		cron: cron.New(),
		cfg:  cfg,
		d:    d,
	}
	if current != nil {
		r.last = current.Raw
	}
	return r
}

// Start schedules Refresh with spec and starts the scheduler.
func (r *Refresher) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := r.Refresh(ctx); err != nil {
			log.Errorf("[Fallback] Refresh failed, keeping installed paywalls: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid FALLBACK_REFRESH %q: %w", spec, err)
	}
	r.cron.Start()
	log.Infof("[Fallback] Refreshing fallback paywalls on %q", spec)
	return nil
}

// Stop halts the scheduler and waits for a running refresh.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Refresh loads the document and installs it when it differs from the one
// installed last. It reports whether an install happened.
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	doc, err := Load(ctx, r.cfg)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.Raw == r.last {
		log.Debugf("[Fallback] %s unchanged", doc.Source)
		return false, nil
	}
	if err := Install(ctx, r.d, doc); err != nil {
		return false, err
	}
	r.last = doc.Raw
	log.Infof("[Fallback] Reinstalled %d paywalls from %s", len(doc.Paywalls.Paywalls), doc.Source)
	return true, nil
}

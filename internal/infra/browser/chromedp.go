package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/duchph/approvebot/internal/core/domain"
)

// Supported backend kinds. Both speak the DevTools protocol; the kind only
// matters for operator-facing validation and logging.
const (
	KindChrome = "chrome"
	KindEdge   = "edge"
)

// SupportedKind reports whether kind names a supported browser backend.
func SupportedKind(kind string) bool {
	return kind == KindChrome || kind == KindEdge
}

// Session is the automation tab handle. It is returned by EnsureSession and
// threaded through every driver call; a lost tab invalidates the handle and
// the next EnsureSession re-attaches or creates a fresh one.
type Session struct {
	TargetID string

	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds the connection settings for the CDP driver.
type Config struct {
	Kind       string // chrome|edge
	DebugAddr  string // e.g. localhost:9222
	BaseURL    string // packages listing URL
	MatchMode  string // equals|startswith|plain
	NavTimeout time.Duration
}

// CDPDriver drives an already-running, already-authenticated browser over
// its remote debugging port. It owns one dedicated automation tab for the
// process lifetime; no other component touches the browser concurrently.
type CDPDriver struct {
	cfg  Config
	host string

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	sess *Session
}

// NewCDPDriver connects to the browser's debugging endpoint.
func NewCDPDriver(cfg Config) (*CDPDriver, error) {
	if !SupportedKind(cfg.Kind) {
		return nil, fmt.Errorf("unsupported browser kind %q (want %s or %s)", cfg.Kind, KindChrome, KindEdge)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 50 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(
		context.Background(),
		"http://"+cfg.DebugAddr,
		chromedp.NoModifyURL,
	)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	slog.Info("Attached to browser", "kind", cfg.Kind, "addr", cfg.DebugAddr)

	return &CDPDriver{
		cfg:         cfg,
		host:        base.Host,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
	}, nil
}

// Close releases the automation tab and the browser connection. The browser
// itself stays open.
func (d *CDPDriver) Close() error {
	if d.sess != nil {
		d.sess.cancel()
		d.sess = nil
	}
	d.browserStop()
	d.allocCancel()
	return nil
}

// EnsureSession returns a live automation tab handle, preferring in order:
// the current handle, an existing tab already on the target host, a fresh
// tab navigated to the base URL.
func (d *CDPDriver) EnsureSession(ctx context.Context) (*Session, error) {
	if d.sess != nil {
		if d.alive(ctx, d.sess) {
			return d.sess, nil
		}
		d.sess.cancel()
		d.sess = nil
	}

	infos, err := chromedp.Targets(d.browserCtx)
	if err != nil {
		return nil, domain.Transient("ensure_session", err)
	}
	for _, info := range infos {
		if info.Type != "page" || !strings.Contains(info.URL, d.host) {
			continue
		}
		s := d.attach(info.TargetID)
		if d.alive(ctx, s) {
			slog.Debug("Re-attached automation tab", "target", s.TargetID, "url", info.URL)
			d.sess = s
			return s, nil
		}
		s.cancel()
	}

	tabCtx, cancel := chromedp.NewContext(d.browserCtx)
	tctx, tcancel := context.WithTimeout(tabCtx, d.cfg.NavTimeout)
	defer tcancel()
	if err := chromedp.Run(tctx, chromedp.Navigate(d.cfg.BaseURL)); err != nil {
		cancel()
		return nil, classify(ctx, "ensure_session", err)
	}
	s := &Session{ctx: tabCtx, cancel: cancel}
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		s.TargetID = string(c.Target.TargetID)
	}
	slog.Debug("Created automation tab", "target", s.TargetID)
	d.sess = s
	return s, nil
}

func (d *CDPDriver) attach(id target.ID) *Session {
	tabCtx, cancel := chromedp.NewContext(d.browserCtx, chromedp.WithTargetID(id))
	return &Session{TargetID: string(id), ctx: tabCtx, cancel: cancel}
}

// alive probes the tab with a trivial evaluation.
func (d *CDPDriver) alive(ctx context.Context, s *Session) bool {
	tctx, cancel := d.opCtx(ctx, s, 3*time.Second)
	defer cancel()
	var one int
	return chromedp.Run(tctx, chromedp.Evaluate("1", &one)) == nil
}

// Navigate loads url in the automation tab.
func (d *CDPDriver) Navigate(ctx context.Context, s *Session, u string) error {
	tctx, cancel := d.opCtx(ctx, s, d.cfg.NavTimeout)
	defer cancel()
	if err := chromedp.Run(tctx, chromedp.Navigate(u)); err != nil {
		return classify(ctx, "navigate", err)
	}
	return nil
}

// WaitIdle polls the processing overlay until it is hidden or timeout
// elapses. Timing out is tolerated.
func (d *CDPDriver) WaitIdle(ctx context.Context, s *Session, timeout time.Duration) error {
	done, err := d.poll(ctx, s, processingHiddenScript, timeout)
	if err != nil {
		return classify(ctx, "wait_idle", err)
	}
	if !done {
		slog.Debug("Processing overlay still visible after timeout", "timeout", timeout)
	}
	return nil
}

// DiscoverTargets searches the listing for the record's OU id and harvests
// its approver links in page order.
func (d *CDPDriver) DiscoverTargets(ctx context.Context, s *Session, rec domain.Record) ([]Target, error) {
	if err := d.Navigate(ctx, s, d.cfg.BaseURL); err != nil {
		return nil, err
	}
	if err := d.WaitIdle(ctx, s, d.cfg.NavTimeout); err != nil {
		return nil, err
	}

	tctx, cancel := d.opCtx(ctx, s, d.cfg.NavTimeout)
	defer cancel()

	var searchRes map[string]any
	if err := chromedp.Run(tctx, chromedp.Evaluate(searchScript(strings.TrimSpace(rec.OUID), d.cfg.MatchMode), &searchRes)); err != nil {
		return nil, classify(ctx, "apply_search", err)
	}
	if ok, _ := searchRes["ok"].(bool); !ok {
		return nil, domain.Structuralf("apply_search", "no search control: %v", searchRes["message"])
	}
	if err := d.WaitIdle(ctx, s, d.cfg.NavTimeout); err != nil {
		return nil, err
	}

	var lenRes map[string]any
	if err := chromedp.Run(tctx, chromedp.Evaluate(pageLengthScript(-1), &lenRes)); err != nil {
		return nil, classify(ctx, "set_page_length", err)
	}
	if err := d.WaitIdle(ctx, s, d.cfg.NavTimeout); err != nil {
		return nil, err
	}

	var links []string
	if err := chromedp.Run(tctx, chromedp.Evaluate(collectLinksScript, &links)); err != nil {
		return nil, classify(ctx, "collect_links", err)
	}

	targets := make([]Target, len(links))
	for i, link := range links {
		targets[i] = Target{Index: i, URL: link}
	}
	slog.Debug("Discovered targets", "ou_id", rec.OUID, "account", rec.AccountName, "count", len(targets))
	return targets, nil
}

// SubmitApprover navigates to the target page, fills the approver field from
// the autocomplete suggestions and submits the form.
func (d *CDPDriver) SubmitApprover(ctx context.Context, s *Session, t Target, approver string, timeout time.Duration) error {
	if err := d.Navigate(ctx, s, t.URL); err != nil {
		return err
	}

	tctx, cancel := d.opCtx(ctx, s, timeout)
	defer cancel()

	if err := chromedp.Run(tctx,
		chromedp.WaitVisible("#approver_value_input", chromedp.ByQuery),
	); err != nil {
		if tctx.Err() != nil && ctx.Err() == nil {
			return domain.Structural("submit_approver", fmt.Errorf("approver input never appeared on %s", t.URL))
		}
		return classify(ctx, "submit_approver", err)
	}

	if err := chromedp.Run(tctx,
		chromedp.Clear("#approver_value_input", chromedp.ByQuery),
		chromedp.SendKeys("#approver_value_input", approver, chromedp.ByQuery),
		chromedp.Sleep(400*time.Millisecond), // let the autocomplete fire
	); err != nil {
		return classify(ctx, "submit_approver", err)
	}

	picked, err := d.poll(ctx, s, pickSuggestionScript(approver), timeout/2)
	if err != nil {
		return classify(ctx, "pick_suggestion", err)
	}
	if !picked {
		return domain.Structuralf("pick_suggestion", "no suggestions for approver %q", approver)
	}

	set, err := d.poll(ctx, s, approverValueSetScript, timeout/2)
	if err != nil {
		return classify(ctx, "pick_suggestion", err)
	}
	if !set {
		return domain.Structuralf("pick_suggestion", "approver value not populated for %q", approver)
	}

	var clicked bool
	if err := chromedp.Run(tctx, chromedp.Evaluate(clickSubmitScript, &clicked)); err != nil {
		return classify(ctx, "click_submit", err)
	}
	if !clicked {
		return domain.Structuralf("click_submit", "submit control missing on %s", t.URL)
	}

	// Settling is best-effort, like the overlay wait: a slow confirmation
	// page is not a failure.
	if settled, err := d.poll(ctx, s, submissionSettledScript, timeout/2); err == nil && !settled {
		slog.Debug("Submission not visibly settled before timeout", "approver", approver)
	}
	return nil
}

// poll evaluates a boolean script every 200ms until it returns true or
// timeout elapses. A timeout is reported as (false, nil); only evaluation
// or connection failures are errors.
func (d *CDPDriver) poll(ctx context.Context, s *Session, expr string, timeout time.Duration) (bool, error) {
	tctx, cancel := d.opCtx(ctx, s, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		var ok bool
		if err := chromedp.Run(tctx, chromedp.Evaluate(expr, &ok)); err != nil {
			if tctx.Err() != nil && ctx.Err() == nil {
				return false, nil
			}
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-tctx.Done():
			return false, nil
		case <-ticker.C:
		}
	}
}

// opCtx bounds a driver operation by its per-call timeout while still
// honoring cancellation of the caller's context.
func (d *CDPDriver) opCtx(ctx context.Context, s *Session, timeout time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}

// classify wraps a driver failure. External cancellation passes through
// untouched (never retried); everything else at this level (timeouts, lost
// tabs, closed connections) is the transient class.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return domain.Transient(op, err)
}

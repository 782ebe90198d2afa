package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/domain/audit"
	"github.com/seedandbeyond/snb-harvest/internal/domain/harvest"
	"github.com/seedandbeyond/snb-harvest/internal/domain/refdata"
	"github.com/seedandbeyond/snb-harvest/internal/infra/alert"
	"github.com/seedandbeyond/snb-harvest/internal/scanner"
	"github.com/seedandbeyond/snb-harvest/internal/servicelayer"
	"github.com/seedandbeyond/snb-harvest/internal/session"
)

// App is the station controller: one authenticated operator, one working
// form, one submission in flight at a time. It owns the scan debouncers
// and maps domain errors onto operator-facing messages.
type App struct {
	cfg config.Config
	log *slog.Logger

	sl       *servicelayer.Client
	sessions *session.Repo
	rec      *audit.Recorder
	notifier *alert.Notifier

	refRepo   *refdata.Repo
	lookup    *harvest.Lookup
	submitter *harvest.Submitter

	ref       *refdata.Data
	form      *harvest.Form
	lookupRes *harvest.LookupResult

	cartScan   *scanner.Debouncer
	hangerScan *scanner.Debouncer
}

func New(cfg config.Config, sl *servicelayer.Client, sessions *session.Repo,
	rec *audit.Recorder, notifier *alert.Notifier, log *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		sl:         sl,
		sessions:   sessions,
		rec:        rec,
		notifier:   notifier,
		refRepo:    refdata.NewRepo(sl, cfg, log),
		lookup:     harvest.NewLookup(sl, cfg, log),
		submitter:  harvest.NewSubmitter(sl, cfg, rec, log),
		ref:        &refdata.Data{},
		cartScan:   scanner.New(cfg.API.ScannerDelay),
		hangerScan: scanner.New(cfg.API.ScannerDelay),
	}
}

func (a *App) Form() *harvest.Form      { return a.form }
func (a *App) Reference() *refdata.Data { return a.ref }
func (a *App) HasActiveForm() bool      { return a.form != nil }

// RestoreSession revalidates a persisted token against the users service.
// A failed probe wipes the stored session instead of leaving a token that
// every subsequent call would bounce on.
func (a *App) RestoreSession(ctx context.Context) (string, bool, error) {
	s, err := a.sessions.Get(ctx)
	if err != nil {
		return "", false, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return "", false, nil
	}

	a.sl.SetToken(s.Token)
	name, err := a.sl.CurrentUser(ctx)
	if err != nil {
		a.log.Info("stored session invalid, clearing", "err", err)
		a.sl.SetToken("")
		if rerr := a.sessions.Reset(ctx); rerr != nil {
			a.log.Warn("session reset failed", "err", rerr)
		}
		return "", false, nil
	}
	if name == "" {
		name = s.Username
	}
	a.rec.SetUsername(name)
	return name, true, nil
}

// Login authenticates and persists the session. Authentication failures
// come back as operator-facing messages picked by keyword.
func (a *App) Login(ctx context.Context, username, password string) (string, error) {
	token, displayName, err := a.sl.Login(ctx, username, password)
	if err != nil {
		var remote *servicelayer.RemoteError
		if errors.As(err, &remote) {
			serverMsg := remote.Message()
			if serverMsg == "" {
				serverMsg = "Invalid credentials"
			}
			_, msg := servicelayer.ClassifyLoginError(serverMsg)
			return "", errors.New(msg)
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if err := a.sessions.Set(ctx, token, displayName); err != nil {
		a.log.Warn("session persist failed", "err", err)
	}
	a.rec.SetUsername(displayName)
	return displayName, nil
}

func (a *App) Logout(ctx context.Context) error {
	a.sl.SetToken("")
	a.rec.SetUsername("")
	a.form = nil
	a.lookupRes = nil
	if err := a.sessions.Reset(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// LoadReferenceData refreshes the cart and hanger masters. Degrades to
// whatever loaded; scan resolution just misses on the empty category.
func (a *App) LoadReferenceData(ctx context.Context) {
	d := a.refRepo.LoadAll(ctx)
	a.ref.Carts = d.Carts
	a.ref.Hangers = d.Hangers
}

// Lookup resolves a scanned harvest name and location into a fresh
// working form. A successful lookup discards any previous form.
func (a *App) Lookup(ctx context.Context, harvestName, location string) error {
	res, err := a.lookup.Run(ctx, harvestName, location, a.ref)
	if err != nil {
		return err
	}
	a.lookupRes = res
	a.form = harvest.NewForm(res, a.ref, harvestName)
	return nil
}

// ScanCart feeds one cart-field input through the debounce window.
func (a *App) ScanCart(value string) {
	a.cartScan.Touch(value, func(v string) { a.ApplyCartScan(v) })
}

// ApplyCartScan resolves the committed cart input immediately. Unknown
// codes clear the cart fields so a misread never leaves a stale tare.
func (a *App) ApplyCartScan(value string) {
	if a.form == nil {
		return
	}
	if c, ok := a.ref.ResolveCart(value); ok {
		a.form.ApplyCart(c)
		return
	}
	a.form.ClearCart()
	if strings.TrimSpace(value) != "" {
		a.log.Debug("unknown cart code", "value", value)
	}
}

// ScanHanger feeds one hanger-field input through the debounce window.
func (a *App) ScanHanger(value string) {
	a.hangerScan.Touch(value, func(v string) { a.ApplyHangerScan(v) })
}

func (a *App) ApplyHangerScan(value string) {
	if a.form == nil {
		return
	}
	if h, ok := a.ref.ResolveHanger(value); ok {
		a.form.ApplyHanger(h)
		return
	}
	a.form.ClearHanger(strings.TrimSpace(value) == "")
	if strings.TrimSpace(value) != "" {
		a.log.Debug("unknown hanger code", "value", value)
	}
}

// CancelScans drops pending debounce commits, e.g. when the form resets.
func (a *App) CancelScans() {
	a.cartScan.Cancel()
	a.hangerScan.Cancel()
}

// Submit runs the harvest workflow for the current form. On full success
// the form is cleared for the next batch; on partial failure it is kept
// so the operator can retry, and the failure is pushed to the alert chat.
func (a *App) Submit(ctx context.Context) (*harvest.SubmitResult, error) {
	if a.form == nil || a.lookupRes == nil {
		return nil, errors.New("no active harvest form")
	}

	res, err := a.submitter.Submit(ctx, a.form, a.ref, a.lookupRes)
	if err != nil {
		return nil, err
	}

	if res.OK() {
		a.log.Info("harvest submitted",
			"harvest", res.HarvestName,
			"plants", res.Plants,
			"groups", res.GroupsSent,
		)
		a.CancelScans()
		a.form = nil
		a.lookupRes = nil
		return res, nil
	}

	a.log.Warn("harvest submission partially failed",
		"harvest", res.HarvestName,
		"groups", res.GroupsSent,
		"ok", res.SuccessCount,
		"errors", len(res.Errors),
	)
	a.notifier.Notify(fmt.Sprintf(
		"Harvest %s: %d of %d batch groups failed: %s",
		res.HarvestName, len(res.Errors), res.GroupsSent, strings.Join(res.Errors, "; "),
	))
	return res, nil
}

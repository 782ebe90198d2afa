package audit

import (
	"context"
	"log/slog"

	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/servicelayer"
)

// Recorder mirrors every remote write to the NBNLG entity and to the
// local call log. Both sinks are fire-and-forget: a logging failure must
// never block or fail the workflow that produced the entry.
type Recorder struct {
	sl       *servicelayer.Client
	cfg      config.Config
	local    *Repo
	log      *slog.Logger
	username string
}

func NewRecorder(sl *servicelayer.Client, cfg config.Config, local *Repo, log *slog.Logger) *Recorder {
	return &Recorder{sl: sl, cfg: cfg, local: local, log: log}
}

// SetUsername sets the acting operator stamped on subsequent entries.
func (r *Recorder) SetUsername(u string) { r.username = u }

// Capture ships one entry. Runs detached from the caller's context so an
// aborted submission still gets its trail written.
func (r *Recorder) Capture(submissionID string, e Entry) {
	if e.Username == "" {
		e.Username = r.username
	}
	if e.App == "" {
		e.App = r.cfg.App.Name
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.API.Timeout)
		defer cancel()

		if resp, err := r.sl.Post(ctx, r.sl.URL(r.cfg.Endpoints.Log), e); err != nil {
			r.log.Debug("remote log capture failed", "err", err)
		} else if !resp.OK() {
			r.log.Debug("remote log capture rejected", "status", resp.Status)
		}

		if r.local == nil {
			return
		}
		row := Row{
			SubmissionID: submissionID,
			LoggedAt:     e.Timestamp,
			Username:     e.Username,
			Method:       e.Method,
			URL:          e.URL,
			Status:       e.Status,
			Response:     e.Response,
		}
		if err := r.local.Insert(ctx, row); err != nil {
			r.log.Debug("local log capture failed", "err", err)
		}
	}()
}

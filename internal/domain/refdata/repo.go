package refdata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/servicelayer"
)

type Repo struct {
	sl  *servicelayer.Client
	cfg config.Config
	log *slog.Logger
}

func NewRepo(sl *servicelayer.Client, cfg config.Config, log *slog.Logger) *Repo {
	return &Repo{sl: sl, cfg: cfg, log: log}
}

// LoadAll fetches the cart and hanger masters concurrently. The two loads
// are independent: a failing one degrades to an empty list so the other
// category stays usable.
func (r *Repo) LoadAll(ctx context.Context) *Data {
	d := &Data{}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		carts, err := servicelayer.GetList[Cart](ctx, r.sl, r.sl.URL(r.cfg.Endpoints.CartMaster))
		if err != nil {
			r.log.Warn("cart master load failed", "err", err)
			return
		}
		d.Carts = carts
	}()

	go func() {
		defer wg.Done()
		hangers, err := servicelayer.GetList[Hanger](ctx, r.sl, r.sl.URL(r.cfg.Endpoints.Hanger))
		if err != nil {
			r.log.Warn("hanger load failed", "err", err)
			return
		}
		d.Hangers = hangers
	}()

	wg.Wait()
	return d
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/subosito/gotenv"

	"github.com/seedandbeyond/snb-harvest/internal/app"
	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/domain/audit"
	"github.com/seedandbeyond/snb-harvest/internal/domain/harvest"
	"github.com/seedandbeyond/snb-harvest/internal/export"
	"github.com/seedandbeyond/snb-harvest/internal/infra/alert"
	httpx "github.com/seedandbeyond/snb-harvest/internal/infra/http"
	"github.com/seedandbeyond/snb-harvest/internal/infra/logger"
	"github.com/seedandbeyond/snb-harvest/internal/infra/store"
	"github.com/seedandbeyond/snb-harvest/internal/servicelayer"
	"github.com/seedandbeyond/snb-harvest/internal/session"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env, cfg.App.Name, cfg.App.Version)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Error("store open failed", "err", err)
		return
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	callLog := audit.NewRepo(db)

	// export-log dumps the local call log and exits; no login needed.
	if len(os.Args) > 1 && os.Args[1] == "export-log" {
		path := ""
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		out, err := export.CallLog(context.Background(), callLog, path)
		if err != nil {
			log.Error("export failed", "err", err)
			return
		}
		fmt.Println(out)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sl := servicelayer.New(cfg, log)
	rec := audit.NewRecorder(sl, cfg, callLog, log)

	notifier, err := alert.New(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
	if err != nil {
		log.Warn("alert channel unavailable", "err", err)
	}

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, cfg.App.Name, cfg.App.Version)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	a := app.New(cfg, sl, session.NewRepo(db), rec, notifier, log)

	in := bufio.NewScanner(os.Stdin)

	name, ok, err := a.RestoreSession(ctx)
	if err != nil {
		log.Error("session restore failed", "err", err)
		return
	}
	if !ok {
		name, err = loginLoop(ctx, a, in)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("login failed", "err", err)
			}
			return
		}
	}
	fmt.Printf("Logged in as %s\n", name)

	a.LoadReferenceData(ctx)

	runLoop(ctx, a, callLog, in)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

func prompt(in *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

func loginLoop(ctx context.Context, a *app.App, in *bufio.Scanner) (string, error) {
	for {
		user, ok := prompt(in, "Username: ")
		if !ok {
			return "", context.Canceled
		}
		pass, ok := prompt(in, "Password: ")
		if !ok {
			return "", context.Canceled
		}
		name, err := a.Login(ctx, user, pass)
		if err != nil {
			fmt.Println(err.Error())
			continue
		}
		return name, nil
	}
}

const help = `commands:
  lookup            scan a harvest name and location
  show              print the working form
  cart <code>       scan a cart
  hanger <code>     scan a hanger type
  hangers <n>       number of hangers
  perhanger <w>     individual hanger weight
  plants <n>        number of plants
  gross <w>         gross weight
  submit            submit the harvest
  reset             discard the working form
  export [path]     write the call log to xlsx
  logout            log out and clear the session
  quit`

func runLoop(ctx context.Context, a *app.App, callLog *audit.Repo, in *bufio.Scanner) {
	fmt.Println(help)
	for {
		line, ok := prompt(in, "> ")
		if !ok || ctx.Err() != nil {
			return
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "":
		case "help":
			fmt.Println(help)
		case "lookup":
			nameVal, ok := prompt(in, "Harvest name: ")
			if !ok {
				return
			}
			locVal, ok := prompt(in, "Location: ")
			if !ok {
				return
			}
			if err := a.Lookup(ctx, nameVal, locVal); err != nil {
				fmt.Println(operatorMessage(err))
				continue
			}
			printForm(a.Form())
		case "show":
			if !a.HasActiveForm() {
				fmt.Println("no active form; run lookup first")
				continue
			}
			printForm(a.Form())
		case "cart":
			a.ApplyCartScan(arg)
		case "hanger":
			a.ApplyHangerScan(arg)
		case "hangers":
			if a.HasActiveForm() {
				a.Form().SetNumberOfHangers(arg)
			}
		case "perhanger":
			if a.HasActiveForm() {
				a.Form().SetIndividualHangerWeight(arg)
			}
		case "plants":
			if a.HasActiveForm() {
				if !a.Form().SetNumberOfPlants(arg) {
					fmt.Println("invalid plant count")
				} else if a.Form().ExceedsAvailable() {
					fmt.Println("warning: exceeds available plants")
				}
			}
		case "gross":
			if a.HasActiveForm() {
				a.Form().SetGrossWeight(arg)
			}
		case "submit":
			res, err := a.Submit(ctx)
			if err != nil {
				fmt.Println(operatorMessage(err))
				continue
			}
			if res.OK() {
				fmt.Printf("Harvest %s submitted: %d plants in %d batch group(s)\n",
					res.HarvestName, res.Plants, res.GroupsSent)
			} else {
				fmt.Printf("Harvest %s partially failed: %d/%d groups ok\n",
					res.HarvestName, res.SuccessCount, res.GroupsSent)
				for _, e := range res.Errors {
					fmt.Println("  " + e)
				}
			}
		case "reset":
			a.CancelScans()
			if a.HasActiveForm() {
				a.Form().Reset()
			}
		case "export":
			out, err := export.CallLog(ctx, callLog, arg)
			if err != nil {
				fmt.Println(err.Error())
				continue
			}
			fmt.Println(out)
		case "logout":
			if err := a.Logout(ctx); err != nil {
				fmt.Println(err.Error())
			}
			return
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command; try help")
		}
	}
}

func printForm(f *harvest.Form) {
	fmt.Printf("tag: %s\nitem: %s\nharvest: %s\nlocation: %s\n",
		f.Tag, f.Item, f.HarvestName, f.Location)
	fmt.Printf("plants: %s / %s available\n", f.NumberOfPlants, f.AvailablePlants)
	fmt.Printf("cart: %s (%s)\nhanger: %s x%s = %s\n",
		f.Cart, f.CartWeight, f.HangerType, f.NumberOfHangers, f.HangerWeight)
	fmt.Printf("gross: %s  net: %s\n", f.GrossWeight, f.NetWeight)
}

// operatorMessage maps domain errors to the texts shown on the station.
func operatorMessage(err error) string {
	var verr *harvest.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var cerr *harvest.ConflictError
	if errors.As(err, &cerr) {
		return cerr.Message
	}
	switch {
	case errors.Is(err, harvest.ErrNoRecords):
		return "No records found for this Harvest Name and Location combination."
	case errors.Is(err, harvest.ErrMissingSerial):
		return "No MnfSerial found in the record. Please contact support."
	case errors.Is(err, harvest.ErrMissingLicense):
		return "Missing required fields in the record. Please contact support."
	}
	var remote *servicelayer.RemoteError
	if errors.As(err, &remote) {
		if m := remote.Message(); m != "" {
			return m
		}
		return fmt.Sprintf("Request failed with status %d", remote.Status)
	}
	return err.Error()
}

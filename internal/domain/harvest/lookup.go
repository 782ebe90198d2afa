package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/domain/refdata"
	"github.com/seedandbeyond/snb-harvest/internal/servicelayer"
)

// PlannerRow is one row of the immature-planner view. BatchAbsEntry keys
// the inventory entry that gets patched per harvested plant.
type PlannerRow struct {
	MnfSerial       string  `json:"MnfSerial"`
	BinLocationCode string  `json:"BinLocationCode"`
	License         string  `json:"U_MetrcLicense"`
	StrainName      string  `json:"StrainName"`
	BatchAbsEntry   int     `json:"BatchAbsEntry"`
	ItemName        string  `json:"ItemName"`
	Quantity        float64 `json:"Quantity"`
	Phase           string  `json:"U_Phase"`
}

// LookupResult is the planner match for a scanned (harvest name,
// location) pair plus the rows driving the per-plant patches later.
type LookupResult struct {
	Serial          string
	BinLocationCode string
	License         string
	StrainName      string
	Rows            []PlannerRow
}

type Lookup struct {
	sl  *servicelayer.Client
	cfg config.Config
	log *slog.Logger
}

func NewLookup(sl *servicelayer.Client, cfg config.Config, log *slog.Logger) *Lookup {
	return &Lookup{sl: sl, cfg: cfg, log: log}
}

// Run queries the planning view for the scanned pair and, on a match,
// replaces the bin-location and item reference lists. The two follow-up
// queries are best-effort: either failing degrades to an empty list
// instead of failing the lookup.
func (l *Lookup) Run(ctx context.Context, harvestName, location string, ref *refdata.Data) (*LookupResult, error) {
	if strings.TrimSpace(harvestName) == "" {
		return nil, &ValidationError{Field: "harvestName", Message: "Please enter a harvest name"}
	}
	if strings.TrimSpace(location) == "" {
		return nil, &ValidationError{Field: "location", Message: "Please enter a location"}
	}

	filter := fmt.Sprintf(
		"Quantity ne 0 and U_Phase eq 'Flower' and endswith(ItemName,'Cannabis Plant') and MnfSerial eq '%s' and BinLocationCode eq '%s'",
		harvestName, location,
	)
	rows, err := servicelayer.GetList[PlannerRow](ctx, l.sl,
		l.sl.QueryURL(l.cfg.Endpoints.ImmaturePlanner, url.Values{"$filter": {filter}}))
	if err != nil {
		return nil, fmt.Errorf("check harvest name: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}

	first := rows[0]
	if first.MnfSerial == "" {
		return nil, ErrMissingSerial
	}
	if first.License == "" {
		return nil, ErrMissingLicense
	}

	itemName := first.StrainName + " - " + "Wet Cannabis"

	bins, err := servicelayer.GetList[refdata.BinLocation](ctx, l.sl,
		l.sl.QueryURL(l.cfg.Endpoints.BinLocations, url.Values{
			"$filter":  {fmt.Sprintf("U_MetrcLicense eq '%s'", first.License)},
			"$orderby": {"BinCode asc,U_MetrcLicense asc"},
		}))
	if err != nil {
		l.log.Warn("bin locations load failed", "license", first.License, "err", err)
		bins = nil
	}

	items, err := servicelayer.GetList[refdata.Item](ctx, l.sl,
		l.sl.QueryURL(l.cfg.Endpoints.Items, url.Values{
			"$filter": {fmt.Sprintf("ItemName eq '%s'", itemName)},
			"$select": {"ItemName,ItemCode"},
		}))
	if err != nil {
		l.log.Warn("items load failed", "item", itemName, "err", err)
		items = nil
	}

	ref.BinLocations = bins
	ref.Items = items

	return &LookupResult{
		Serial:          first.MnfSerial,
		BinLocationCode: first.BinLocationCode,
		License:         first.License,
		StrainName:      first.StrainName,
		Rows:            rows,
	}, nil
}

// NewForm seeds the working form from a lookup match.
func NewForm(res *LookupResult, ref *refdata.Data, harvestName string) *Form {
	item := ""
	if len(ref.Items) > 0 {
		item = ref.Items[0].ItemName
	}
	location := res.BinLocationCode
	if location == "" {
		location = res.License
	}
	f := &Form{
		Tag:             res.Serial,
		Item:            item,
		AvailablePlants: strconv.Itoa(len(res.Rows)),
		HarvestName:     harvestName,
		NumberOfHangers: defaultHangerCount,
		HangerWeight:    "0.00",
		Location:        location,
	}
	return f
}

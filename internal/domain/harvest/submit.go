package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seedandbeyond/snb-harvest/internal/config"
	"github.com/seedandbeyond/snb-harvest/internal/domain/audit"
	"github.com/seedandbeyond/snb-harvest/internal/domain/refdata"
	"github.com/seedandbeyond/snb-harvest/internal/infra/metrics"
	"github.com/seedandbeyond/snb-harvest/internal/servicelayer"
)

// flexNumber decodes the quantity fields of an existing harvest record,
// which come back numeric or quoted depending on how they were written.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(v)
	return nil
}

// Record is the remote harvest header, keyed by DocNum and uniquely
// identified by (license, harvest name).
type Record struct {
	DocNum      int        `json:"DocNum"`
	Warehouse   string     `json:"U_WHSCODE"`
	PlantQty    flexNumber `json:"U_NPQTY"`
	GrossWeight flexNumber `json:"U_NGRHWT"`
	WetWeight   flexNumber `json:"U_NWFWT"`
	TotalWeight flexNumber `json:"U_NHOWT"`
	License     string     `json:"U_NLFID"`
	HarvestName string     `json:"U_NHBID"`
}

// SubmitResult aggregates the outcome of the batch groups. A populated
// Errors slice with a non-zero SuccessCount is a partial failure: the
// successful patches are not rolled back.
type SubmitResult struct {
	HarvestName  string
	Plants       int
	GroupsSent   int
	SuccessCount int
	Errors       []string
}

func (r *SubmitResult) OK() bool { return len(r.Errors) == 0 }

type Submitter struct {
	sl  *servicelayer.Client
	cfg config.Config
	log *slog.Logger
	rec *audit.Recorder
}

func NewSubmitter(sl *servicelayer.Client, cfg config.Config, rec *audit.Recorder, log *slog.Logger) *Submitter {
	return &Submitter{sl: sl, cfg: cfg, rec: rec, log: log}
}

// Submit runs the full harvest workflow: preconditions, duplicate check,
// header create-or-update, then the grouped line patches. A hard failure
// before the batch stage returns an error and mutates nothing further;
// batch-stage failures are aggregated in the result.
func (s *Submitter) Submit(ctx context.Context, f *Form, ref *refdata.Data, lk *LookupResult) (*SubmitResult, error) {
	if verr := f.Validate(); verr != nil {
		return nil, verr
	}

	var selected *refdata.BinLocation
	for i := range ref.BinLocations {
		if ref.BinLocations[i].BinCode == f.Location {
			selected = &ref.BinLocations[i]
			break
		}
	}
	if selected == nil {
		return nil, &ValidationError{Field: "location", Message: fmt.Sprintf(
			"No matching location found for: %s. Please check the location selection.", f.Location)}
	}

	submissionID := uuid.NewString()
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	// The license driving the duplicate checks comes from the loaded bin
	// locations, falling back to the raw location text.
	license := f.Location
	if len(ref.BinLocations) > 0 {
		license = ref.BinLocations[0].License
	}

	finalized, err := servicelayer.GetList[Record](ctx, s.sl,
		s.sl.QueryURL(s.cfg.Endpoints.Harvest, url.Values{
			"$filter": {fmt.Sprintf("U_NLFID eq '%s' and U_NHBID eq '%s' and U_IsHarvested eq 'Yes'", license, f.HarvestName)},
		}))
	if err != nil {
		return nil, fmt.Errorf("check existing harvest: %w", err)
	}
	if len(finalized) > 0 {
		metrics.Submissions.WithLabelValues("conflict").Inc()
		return nil, &ConflictError{Message: "The entered Harvest Batch already exists. Please enter a different Harvest Batch."}
	}

	payload := s.buildPayload(f, ref, selected, license, now)

	// The full payload (cart and hanger included) rides in the batch as a
	// harvest-lines POST; the header itself gets the reduced copy.
	batch := []servicelayer.BatchRequest{{
		Entity: s.cfg.API.Version + s.cfg.Endpoints.HarvestLines,
		Method: "POST",
		Data:   clonePayload(payload),
	}}

	records, err := servicelayer.GetList[Record](ctx, s.sl,
		s.sl.QueryURL(s.cfg.Endpoints.Harvest, url.Values{
			"$filter":  {fmt.Sprintf("U_NLFID eq '%s' and U_NHBID eq '%s'", license, f.HarvestName)},
			"$orderby": {"DocNum desc"},
		}))
	if err != nil {
		return nil, fmt.Errorf("recheck existing harvest: %w", err)
	}

	reduced := clonePayload(payload)
	for _, k := range []string{"U_NCTTP", "U_NCTWT", "U_NHNTP", "U_NHNWT", "U_NNOHN"} {
		delete(reduced, k)
	}

	if len(records) > 0 {
		existing := records[0]
		if existing.Warehouse != f.Location {
			metrics.Submissions.WithLabelValues("conflict").Inc()
			return nil, &ConflictError{Message: fmt.Sprintf(
				"Harvest batch already created in different location: %s", existing.Warehouse)}
		}
		// Continue the in-progress batch: sum the quantities into the
		// existing header. The summed fields become numeric on the wire.
		reduced["U_NPQTY"] = asFloat(reduced["U_NPQTY"]) + float64(existing.PlantQty)
		reduced["U_NGRHWT"] = asFloat(reduced["U_NGRHWT"]) + float64(existing.GrossWeight)
		reduced["U_NWFWT"] = asFloat(reduced["U_NWFWT"]) + float64(existing.WetWeight)
		reduced["U_NHOWT"] = asFloat(reduced["U_NHOWT"]) + float64(existing.TotalWeight)

		if err := s.updateHeader(ctx, submissionID, existing.DocNum, reduced, now); err != nil {
			return nil, err
		}
	} else {
		if err := s.createHeader(ctx, submissionID, reduced, now); err != nil {
			return nil, err
		}
	}

	plants := int(numOr0(f.NumberOfPlants))
	for i, row := range lk.Rows {
		if i >= plants {
			break
		}
		batch = append(batch, servicelayer.BatchRequest{
			Entity: fmt.Sprintf("%s%s(%d)", s.cfg.API.Version, s.cfg.Endpoints.BatchNumberDetails, row.BatchAbsEntry),
			Method: "PATCH",
			Data: map[string]any{
				"U_Phase":         "Harvest",
				"BatchAttribute1": f.HarvestName,
			},
		})
	}

	res := s.sendBatchGroups(ctx, submissionID, batch, now)
	res.HarvestName = f.HarvestName
	res.Plants = plants

	if res.OK() {
		metrics.Submissions.WithLabelValues("ok").Inc()
	} else {
		metrics.Submissions.WithLabelValues("partial_failure").Inc()
	}
	return res, nil
}

// buildPayload maps the form onto the ERP field codes. Weights travel as
// two-decimal strings, counts as numbers; that asymmetry is what the
// server-side UDFs were observed to accept.
func (s *Submitter) buildPayload(f *Form, ref *refdata.Data, selected *refdata.BinLocation, license, now string) map[string]any {
	net := numOr0(f.NetWeight)

	warehouse := selected.Warehouse
	if warehouse == "" {
		warehouse = f.Location
	}
	itemCode := f.Item
	if len(ref.Items) > 0 {
		itemCode = ref.Items[0].ItemCode
	}
	strain, _, _ := strings.Cut(f.Item, " - ")

	return map[string]any{
		"U_NHOWT":   format2(net),               // total weight
		"U_NWFWT":   format2(net),               // wet weight
		"U_NLOCD":   warehouse,                  // location
		"U_NLCNM":   selected.AbsEntry,          // location entry
		"U_NSTNM":   strain,                     // strain name
		"U_NPQTY":   numOr0(f.NumberOfPlants),   // plant count
		"U_NHBID":   f.HarvestName,              // harvest name
		"U_WHSCODE": f.Location,                 // warehouse code
		"U_NHEDT":   now,                        // harvest date
		"U_NWSRP":   "0",                        // fixed status
		"U_NBTST":   "H",                        // fixed status
		"U_NLFID":   license,                    // license id
		"U_NITCD":   itemCode,                   // item code
		"U_NITEM":   f.Item,                     // item name
		"U_NGRHWT":  format2(numOr0(f.GrossWeight)),
		"U_NCTTP":   f.Cart,
		"U_NCTWT":   format2(numOr0(f.CartWeight)),
		"U_NHNTP":   f.HangerType,
		"U_NHNWT":   format2(numOr0(f.HangerWeight)),
		"U_NNOHN":   numOr0(f.NumberOfHangers),
	}
}

func (s *Submitter) updateHeader(ctx context.Context, submissionID string, docNum int, payload map[string]any, now string) error {
	target := fmt.Sprintf("%s(%d)", s.cfg.Endpoints.Harvest, docNum)
	resp, err := s.sl.Patch(ctx, s.sl.URL(target), payload)

	excerpt := ""
	status := 400
	if err == nil {
		if resp.OK() {
			status = 200
		} else {
			excerpt = errorExcerpt(string(resp.Body), "Update failed")
		}
	} else {
		excerpt = err.Error()
	}
	body, _ := json.Marshal(payload)
	s.rec.Capture(submissionID, audit.Entry{
		Timestamp: now,
		Method:    "PATCH",
		URL:       s.logPath(target),
		Body:      string(body),
		Response:  excerpt,
		Status:    status,
	})

	if err != nil {
		return fmt.Errorf("update harvest record: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("update harvest record: %w",
			&servicelayer.RemoteError{Status: resp.Status, Body: string(resp.Body)})
	}
	return nil
}

func (s *Submitter) createHeader(ctx context.Context, submissionID string, payload map[string]any, now string) error {
	resp, err := s.sl.Post(ctx, s.sl.URL(s.cfg.Endpoints.Harvest), payload)

	excerpt := ""
	status := 400
	if err == nil {
		if resp.OK() {
			status = 200
			excerpt = createdDocNum(resp.Body)
		} else {
			excerpt = errorExcerpt(string(resp.Body), "Create failed")
		}
	} else {
		excerpt = err.Error()
	}
	body, _ := json.Marshal(payload)
	s.rec.Capture(submissionID, audit.Entry{
		Timestamp: now,
		Method:    "POST",
		URL:       s.logPath(s.cfg.Endpoints.Harvest),
		Body:      string(body),
		Response:  excerpt,
		Status:    status,
	})

	if err != nil {
		return fmt.Errorf("create harvest record: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("create harvest record: %w",
			&servicelayer.RemoteError{Status: resp.Status, Body: string(resp.Body)})
	}
	return nil
}

var batchMessageRe = regexp.MustCompile(`(?i)message["\s]*:["\s]*([^"]+)`)

// sendBatchGroups splits the entries into config-sized groups and sends
// them strictly in order. A failed group never stops the later ones; the
// outcome is aggregated, not tracked per row.
func (s *Submitter) sendBatchGroups(ctx context.Context, submissionID string, batch []servicelayer.BatchRequest, now string) *SubmitResult {
	res := &SubmitResult{}
	if len(batch) == 0 {
		return res
	}

	size := s.cfg.API.BatchSize
	if size <= 0 {
		size = 200
	}

	for start := 0; start < len(batch); start += size {
		end := start + size
		if end > len(batch) {
			end = len(batch)
		}
		group := batch[start:end]

		payload, err := servicelayer.BuildBatchPayload(group)
		if err != nil {
			res.GroupsSent++
			res.Errors = append(res.Errors, err.Error())
			continue
		}

		resp, err := s.sl.SendBatch(ctx, payload)
		if err != nil {
			res.GroupsSent++
			res.Errors = append(res.Errors, err.Error())
			continue
		}

		text := string(resp.Body)
		failed := strings.Contains(text, "error")

		excerpt := ""
		if failed {
			excerpt = errorExcerpt(text, "")
		}
		status := 400
		if resp.OK() {
			status = 200
		}
		s.rec.Capture(submissionID, audit.Entry{
			Timestamp: now,
			Method:    "POST",
			URL:       "Batch calls",
			Body:      payload,
			Response:  excerpt,
			Status:    status,
		})

		res.GroupsSent++
		if failed {
			msg := "Batch operation failed"
			if strings.Contains(text, "message") {
				if m := batchMessageRe.FindStringSubmatch(text); m != nil {
					msg = m[1]
				}
			}
			res.Errors = append(res.Errors, msg)
			metrics.BatchGroups.WithLabelValues("failed").Inc()
			s.log.Warn("batch group failed", "group", res.GroupsSent, "msg", msg)
		} else {
			res.SuccessCount++
			metrics.BatchGroups.WithLabelValues("ok").Inc()
		}
	}
	return res
}

// logPath renders the audit-log form of an endpoint: version prefix
// without the leading slash, as the log entity has always stored it.
func (s *Submitter) logPath(endpoint string) string {
	return strings.TrimPrefix(s.cfg.API.Version, "/") + endpoint
}

func clonePayload(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		return numOr0(t)
	default:
		return 0
	}
}

func createdDocNum(body []byte) string {
	var created struct {
		DocNum json.Number `json:"DocNum"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "Success"
	}
	if created.DocNum != "" {
		return created.DocNum.String()
	}
	return "Success"
}

// errorExcerpt pulls a short excerpt out of an error body for the audit
// log. The Service Layer gives no structured error schema; the naive
// "message" split is intentionally kept from the handheld client so the
// log entity keeps receiving comparable excerpts.
func errorExcerpt(body, fallback string) string {
	if !strings.Contains(body, "message") {
		return fallback
	}
	parts := strings.Split(body, "message")
	if len(parts) > 2 && parts[2] != "" {
		return parts[2]
	}
	return "Unknown error"
}

package servicelayer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seedandbeyond/snb-harvest/internal/infra/metrics"
)

// BatchRequest is one operation inside a $batch multipart call. Entity is
// the server-relative path including the version prefix, e.g.
// "/b1s/v1/BatchNumberDetails(42)".
type BatchRequest struct {
	Entity string
	Method string
	Data   any
}

// The framing below is what the B1 batch endpoint accepts from the
// handheld client; the boundary marker, the double spaces and the
// space-CRLF blank lines are all part of that contract. Do not tidy it.
const batchBoundary = "clone_batch"

const batchPartHeader = "--clone_batch--\r\nContent-Type:application/http  \r\nContent-Transfer-Encoding:binary\r\n \r\n"

// BuildBatchPayload renders a group of requests into the multipart body.
func BuildBatchPayload(reqs []BatchRequest) (string, error) {
	var b strings.Builder
	b.WriteString(batchPartHeader)
	for i, r := range reqs {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return "", fmt.Errorf("marshal batch part %d: %w", i, err)
		}
		b.WriteString(r.Method + " " + r.Entity + "\r\n \r\n")
		b.Write(data)
		b.WriteString("\r\n \r\n")
		if i == len(reqs)-1 {
			b.WriteString("--clone_batch--")
		} else {
			b.WriteString(batchPartHeader)
		}
	}
	return b.String(), nil
}

// SendBatch posts one rendered multipart group. Uses the dedicated batch
// HTTP client, which carries the longer batch timeout.
func (c *Client) SendBatch(ctx context.Context, payload string) (*Response, error) {
	resp, err := c.doRaw(ctx, c.batch, "POST", c.URL(c.cfg.Endpoints.Batch),
		"multipart/mixed;boundary="+batchBoundary, []byte(payload))
	if err != nil {
		metrics.BatchGroups.WithLabelValues("transport_error").Inc()
		return nil, err
	}
	return resp, nil
}

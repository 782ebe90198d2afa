package servicelayer

import (
	"strings"
	"testing"
)

func TestBuildBatchPayloadSinglePart(t *testing.T) {
	payload, err := BuildBatchPayload([]BatchRequest{{
		Entity: "/b1s/v1/BatchNumberDetails(42)",
		Method: "PATCH",
		Data:   map[string]any{"U_Phase": "Harvest"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	want := "--clone_batch--\r\n" +
		"Content-Type:application/http  \r\n" +
		"Content-Transfer-Encoding:binary\r\n" +
		" \r\n" +
		"PATCH /b1s/v1/BatchNumberDetails(42)\r\n" +
		" \r\n" +
		`{"U_Phase":"Harvest"}` + "\r\n" +
		" \r\n" +
		"--clone_batch--"
	if payload != want {
		t.Errorf("payload mismatch\n got: %q\nwant: %q", payload, want)
	}
}

func TestBuildBatchPayloadMultiPart(t *testing.T) {
	reqs := []BatchRequest{
		{Entity: "/b1s/v1/NPFETLINES", Method: "POST", Data: map[string]any{"U_NHBID": "HB1"}},
		{Entity: "/b1s/v1/BatchNumberDetails(1)", Method: "PATCH", Data: map[string]any{"U_Phase": "Harvest"}},
		{Entity: "/b1s/v1/BatchNumberDetails(2)", Method: "PATCH", Data: map[string]any{"U_Phase": "Harvest"}},
	}
	payload, err := BuildBatchPayload(reqs)
	if err != nil {
		t.Fatal(err)
	}

	// Every part is introduced by the full header block; only the final
	// part is followed by the bare closing marker.
	headerCount := strings.Count(payload, "Content-Transfer-Encoding:binary")
	if headerCount != len(reqs) {
		t.Errorf("header blocks = %d, want %d", headerCount, len(reqs))
	}
	if !strings.HasSuffix(payload, "--clone_batch--") {
		t.Error("payload should end with the closing marker")
	}
	if !strings.HasPrefix(payload, "--clone_batch--\r\n") {
		t.Error("payload should open with the boundary marker")
	}
	for _, frag := range []string{
		"POST /b1s/v1/NPFETLINES\r\n \r\n",
		"PATCH /b1s/v1/BatchNumberDetails(1)\r\n \r\n",
		"PATCH /b1s/v1/BatchNumberDetails(2)\r\n \r\n",
	} {
		if !strings.Contains(payload, frag) {
			t.Errorf("payload missing %q", frag)
		}
	}
}

func TestBuildBatchPayloadMarshalError(t *testing.T) {
	_, err := BuildBatchPayload([]BatchRequest{{
		Entity: "/b1s/v1/NPFET",
		Method: "POST",
		Data:   map[string]any{"bad": func() {}},
	}})
	if err == nil {
		t.Fatal("expected marshal error")
	}
}

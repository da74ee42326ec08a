package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kdarko/ecgbill/internal/billing"
	"github.com/kdarko/ecgbill/internal/storage"
	"github.com/kdarko/ecgbill/internal/tariff"
)

func newTestMux(t *testing.T) (*http.ServeMux, *scheduleSession, storage.Storage) {
	t.Helper()
	st := storage.NewMemory()
	session := newScheduleSession(context.Background(), st)

	mux := http.NewServeMux()
	mux.HandleFunc("/bill", handleBill(session))
	RegisterTariffHandlers(mux, session, nil, nil)
	return mux, session, st
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestBillEndpoint(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec := postJSON(t, mux, "/bill", BillRequestDTO{
		Request: billing.Request{
			PreviousReading: 100,
			CurrentReading:  220,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res billing.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.UnitsConsumed != 120 {
		t.Errorf("units consumed = %v, want 120", res.UnitsConsumed)
	}
	if math.Abs(res.TotalBill-219.8895) > 1e-9 {
		t.Errorf("total bill = %v, want 219.8895", res.TotalBill)
	}
}

func TestBillEndpointRejectsBadInput(t *testing.T) {
	mux, _, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/bill", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /bill status = %d, want 405", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/bill", bytes.NewReader([]byte("{not json")))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, mux, "/bill", BillRequestDTO{Policy: "purc1885"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown policy status = %d, want 404", rec.Code)
	}
}

func TestPoliciesEndpoint(t *testing.T) {
	mux, _, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/policies", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var ps []PolicyDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &ps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	keys := map[string]bool{}
	for _, p := range ps {
		keys[p.Key] = true
	}
	if !keys["purc2023"] || !keys["purc2019"] {
		t.Errorf("policy list missing builtin revisions: %+v", ps)
	}
}

func TestTariffGetAndEdit(t *testing.T) {
	mux, _, st := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/tariff/purc2023", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get schedule status = %d", rec.Code)
	}

	rate := 2.5
	rec = postJSON(t, mux, "/tariff/purc2023/edit", tariff.Edit{
		Kind:  tariff.EditUpdate,
		Class: tariff.ClassResidential,
		Index: 0,
		Rate:  &rate,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode edit response: %v", err)
	}
	if resp.Schedule[tariff.ClassResidential][0].Rate != 2.5 {
		t.Errorf("edit not reflected: %+v", resp.Schedule[tariff.ClassResidential][0])
	}

	// The edit is persisted as a snapshot.
	snap, err := st.GetScheduleSnapshot(context.Background(), "purc2023")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("no snapshot saved after edit")
	}

	// Bills computed after the edit use the edited schedule.
	rec = postJSON(t, mux, "/bill", BillRequestDTO{
		Request: billing.Request{CurrentReading: 10},
	})
	var res billing.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode bill: %v", err)
	}
	if math.Abs(res.EnergyCost-25.0) > 1e-9 {
		t.Errorf("energy cost after edit = %v, want 25.0", res.EnergyCost)
	}
}

func TestTariffEditInvariantPreserved(t *testing.T) {
	mux, _, _ := newTestMux(t)

	// Removing the unbounded band is a no-op, not an error.
	rec := postJSON(t, mux, "/tariff/purc2023/edit", tariff.Edit{
		Kind:  tariff.EditRemove,
		Class: tariff.ClassNonResidential,
		Index: 0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d", rec.Code)
	}

	var resp ScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	bands := resp.Schedule[tariff.ClassNonResidential]
	if len(bands) != 1 || !bands[0].Limit.IsUnbounded() {
		t.Errorf("unbounded band removed via API: %+v", bands)
	}
}

func TestTariffUnknownPolicy(t *testing.T) {
	mux, _, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/tariff/purc1885", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionSeedsFromSnapshot(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()

	edited := tariff.Schedule{
		tariff.ClassResidential: {
			{Limit: tariff.Bounded(100), Rate: 3.0},
			{Limit: tariff.Unbounded(), Rate: 4.0},
		},
	}
	payload, _ := json.Marshal(edited)
	if err := st.SaveScheduleSnapshot(ctx, storage.ScheduleSnapshot{Policy: "purc2023", Payload: payload}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	session := newScheduleSession(ctx, st)

	sched, ok := session.Get("purc2023")
	if !ok {
		t.Fatal("purc2023 not seeded")
	}
	if sched[tariff.ClassResidential][0].Rate != 3.0 {
		t.Errorf("snapshot not restored: %+v", sched[tariff.ClassResidential][0])
	}

	// Policies without a snapshot fall back to defaults.
	legacy, ok := session.Get("purc2019")
	if !ok {
		t.Fatal("purc2019 not seeded")
	}
	if legacy[tariff.ClassResidential][0].Rate != 0.3383 {
		t.Errorf("defaults not used for purc2019: %+v", legacy[tariff.ClassResidential][0])
	}
}

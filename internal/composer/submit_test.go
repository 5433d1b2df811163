package composer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/internal/config"
	"github.com/vantagesec/reportkit/models"
)

// stubServer fakes the report and finding endpoints. Definition 13 always
// fails with a validation error; everything else seeds fine.
func stubServer(t *testing.T) (*httptest.Server, *[]int64) {
	t.Helper()
	var mu sync.Mutex
	var seeded []int64
	var nextFinding int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /reports", func(w http.ResponseWriter, r *http.Request) {
		var req client.ReportCreate
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Report{
			ID:              42,
			ClientName:      req.ClientName,
			ApplicationName: req.ApplicationName,
			Status:          models.ReportDraft,
		})
	})
	mux.HandleFunc("POST /reports/42/findings", func(w http.ResponseWriter, r *http.Request) {
		var req client.FindingCreate
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.DefinitionID != nil && *req.DefinitionID == 13 {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"definition not found"}`))
			return
		}
		mu.Lock()
		seeded = append(seeded, *req.DefinitionID)
		nextFinding++
		id := nextFinding
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(client.FindingView{
			Finding: models.Finding{ID: id, ReportID: 42, DefinitionID: req.DefinitionID, AffectedURL: req.AffectedURL},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seeded
}

func stubClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	return client.New(config.ClientConfig{
		BaseURL:   srv.URL,
		TokenPath: filepath.Join(t.TempDir(), "tokens.json"),
	})
}

func TestSubmitSeedsAllSelectionsEvenWhenSomeFail(t *testing.T) {
	srv, seeded := stubServer(t)
	api := stubClient(t, srv)

	st := New()
	st.SelectExistingClient("Acme Corp")
	st.ApplicationName = "Billing Portal"
	st.Targets = []string{"", "https://billing.example.com"}
	st.StartDate = "2026-08-01"
	st.EndDate = "2026-08-14"
	st.SelectedDefinitions = []int64{11, 12, 13, 14, 15, 16}

	out, err := Submit(context.Background(), api, st)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Report == nil || out.Report.ID != 42 {
		t.Fatalf("expected the created report, got %+v", out.Report)
	}
	if out.Created != 5 || out.Failed != 1 {
		t.Fatalf("expected 5 created and 1 failed, got %d/%d", out.Created, out.Failed)
	}
	if len(out.Seeded) != len(st.SelectedDefinitions) {
		t.Fatalf("every selection gets a result, got %d", len(out.Seeded))
	}

	// Results come back in selection order regardless of completion order.
	for i, res := range out.Seeded {
		if res.DefinitionID != st.SelectedDefinitions[i] {
			t.Fatalf("result %d is for definition %d, want %d", i, res.DefinitionID, st.SelectedDefinitions[i])
		}
		if res.DefinitionID == 13 {
			if res.Err == nil || !client.IsNotFound(res.Err) {
				t.Fatalf("definition 13 should fail with not found, got %v", res.Err)
			}
			continue
		}
		if res.Err != nil {
			t.Fatalf("definition %d should seed, got %v", res.DefinitionID, res.Err)
		}
		if res.Finding.AffectedURL != "https://billing.example.com" {
			t.Fatalf("first non-empty target should seed affected_url, got %q", res.Finding.AffectedURL)
		}
	}

	if len(*seeded) != 5 {
		t.Fatalf("server should have accepted 5 findings, got %d", len(*seeded))
	}
}

func TestSubmitUsesPlaceholderWithoutTargets(t *testing.T) {
	srv, _ := stubServer(t)
	api := stubClient(t, srv)

	st := New()
	st.EnterNewClient("Globex")
	st.ApplicationName = "Intranet"
	st.SelectedDefinitions = []int64{11}

	out, err := Submit(context.Background(), api, st)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := out.Seeded[0].Finding.AffectedURL; got != "TBD" {
		t.Fatalf("expected placeholder affected_url, got %q", got)
	}
}

func TestSubmitRejectsIncompleteState(t *testing.T) {
	srv, _ := stubServer(t)
	api := stubClient(t, srv)

	if _, err := Submit(context.Background(), api, New()); err == nil {
		t.Fatal("submit without an organization must fail")
	}

	st := New()
	st.EnterNewClient("Globex")
	if _, err := Submit(context.Background(), api, st); err == nil {
		t.Fatal("submit without an application name must fail")
	}
}

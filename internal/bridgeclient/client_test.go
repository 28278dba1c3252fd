// internal/bridgeclient/client_test.go
package bridgeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"print-bridge/internal/model"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func bridgeStub(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL), srv
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestCheckStatusCachesProbe(t *testing.T) {
	var probes int32
	client, _ := bridgeStub(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&probes, 1)
		writeJSON(w, http.StatusOK, envelope{Success: true})
	})

	ctx := context.Background()
	if !client.CheckStatus(ctx) {
		t.Fatal("running bridge must report available")
	}
	if !client.CheckStatus(ctx) {
		t.Fatal("cached status must report available")
	}
	if got := atomic.LoadInt32(&probes); got != 1 {
		t.Fatalf("probe count = %d, want 1 (second call served from cache)", got)
	}
}

func TestCheckStatusCachesUnavailable(t *testing.T) {
	var probes int32
	client, srv := bridgeStub(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&probes, 1)
		writeJSON(w, http.StatusOK, envelope{Success: true})
	})
	srv.Close()

	ctx := context.Background()
	if client.CheckStatus(ctx) {
		t.Fatal("stopped bridge must report unavailable")
	}
	if client.CheckStatus(ctx) {
		t.Fatal("cached status must report unavailable")
	}
	if got := atomic.LoadInt32(&probes); got != 0 {
		t.Fatalf("probe count = %d, want 0 (server down)", got)
	}
}

func TestInvalidateForcesReprobe(t *testing.T) {
	var probes int32
	client, _ := bridgeStub(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&probes, 1)
		writeJSON(w, http.StatusOK, envelope{Success: true})
	})

	ctx := context.Background()
	client.CheckStatus(ctx)
	client.Invalidate()
	client.CheckStatus(ctx)

	if got := atomic.LoadInt32(&probes); got != 2 {
		t.Fatalf("probe count = %d, want 2 after Invalidate", got)
	}
}

func TestPrintReceiptSuccess(t *testing.T) {
	client, _ := bridgeStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/print" {
			t.Errorf("path = %s, want /print", r.URL.Path)
		}
		var job model.PrintJob
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			t.Errorf("decode job: %v", err)
		}
		if job.PrinterName != "EPSON_TM_T20" || job.Receipt == nil {
			t.Errorf("job = %+v, want receipt for EPSON_TM_T20", job)
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Print job dispatched"})
	})

	result := client.PrintReceipt(context.Background(), "EPSON_TM_T20", &model.Receipt{
		CompanyName: "Corner Cafe",
		Total:       6.54,
	})
	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
}

func TestPrintReceiptBridgeDown(t *testing.T) {
	client, srv := bridgeStub(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	result := client.PrintReceipt(context.Background(), "EPSON_TM_T20", &model.Receipt{Total: 1})
	if result.Success {
		t.Fatal("unreachable bridge must not report success")
	}
	if result.Error == "" {
		t.Fatal("failure must carry an error message")
	}
}

func TestPrintReceiptServerError(t *testing.T) {
	client, _ := bridgeStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, envelope{
			Success: false,
			Error: map[string]string{
				"code":    "DISPATCH_ERROR",
				"message": "Print dispatch failed",
			},
		})
	})

	result := client.PrintReceipt(context.Background(), "EPSON_TM_T20", &model.Receipt{Total: 1})
	if result.Success {
		t.Fatal("dispatch failure must not report success")
	}
	if result.Error != "Print dispatch failed" {
		t.Fatalf("Error = %q, want the bridge error message", result.Error)
	}
}

func TestListPrinters(t *testing.T) {
	client, _ := bridgeStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Data: map[string]interface{}{
				"printers": []model.PrinterDescriptor{
					{Name: "EPSON_TM_T20", IsDefault: true},
					{Name: "Kitchen_Printer"},
				},
				"count": 2,
			},
		})
	})

	printers, err := client.ListPrinters(context.Background())
	if err != nil {
		t.Fatalf("ListPrinters: %v", err)
	}
	if len(printers) != 2 || printers[0].Name != "EPSON_TM_T20" || !printers[0].IsDefault {
		t.Fatalf("printers = %+v", printers)
	}
}

func TestOpenDrawerNeverPanics(t *testing.T) {
	client := New("http://127.0.0.1:1")

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("client panicked: %v", r)
		}
	}()

	result := client.OpenDrawer(context.Background(), "P1", nil)
	if result.Success {
		t.Fatal("unreachable bridge must not report success")
	}
}

// internal/handler/bridge_handler_test.go
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"print-bridge/internal/config"
	"print-bridge/internal/escpos"
	"print-bridge/internal/middleware"
	"print-bridge/internal/model"
	"print-bridge/internal/service"
	"print-bridge/internal/spooler"
	"print-bridge/internal/utils"
)

// fakeDispatcher records dispatched jobs and can be told to fail.
type fakeDispatcher struct {
	mu       sync.Mutex
	sent     [][]byte
	printers []model.PrinterDescriptor
	sendErr  error
}

func (f *fakeDispatcher) ListPrinters(ctx context.Context) []model.PrinterDescriptor {
	if f.printers == nil {
		return []model.PrinterDescriptor{}
	}
	return f.printers
}

func (f *fakeDispatcher) Send(ctx context.Context, printer string, data []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, data)
	f.mu.Unlock()
	return nil
}

func (f *fakeDispatcher) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testConfig() *config.Config {
	return &config.Config{
		Printing: config.PrintingConfig{MaxImageWidth: 384},
		App:      config.AppConfig{Version: "1.0.0", Environment: "production"},
	}
}

func newTestRouter(t *testing.T, dispatcher spooler.Dispatcher) *gin.Engine {
	t.Helper()
	return newTestRouterWithLogger(t, dispatcher, zap.NewNop())
}

func newTestRouterWithLogger(t *testing.T, dispatcher spooler.Dispatcher, logger *zap.Logger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	builder := escpos.NewBuilder(escpos.NewRasterEncoder(cfg.Printing.MaxImageWidth), logger)
	printService := service.NewPrintService(builder, dispatcher, cfg, logger)

	events := NewEventBus(logger)
	go events.Start()

	bridgeHandler := NewBridgeHandler(printService, events, logger)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.GET("/status", bridgeHandler.Status)
	router.GET("/printers", bridgeHandler.ListPrinters)
	router.POST("/print", bridgeHandler.Print)
	router.POST("/print-raw", bridgeHandler.PrintRaw)
	router.POST("/cash-drawer", bridgeHandler.OpenDrawer)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, utils.APIResponse) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp utils.APIResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeDispatcher{
		printers: []model.PrinterDescriptor{{Name: "EPSON_TM_T20", IsDefault: true}},
	})

	w, resp := doJSON(router, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !resp.Success {
		t.Fatal("status response must report success")
	}

	data := resp.Data.(map[string]interface{})
	if data["printer_count"].(float64) != 1 {
		t.Errorf("printer_count = %v, want 1", data["printer_count"])
	}
	if data["image_support"] != true {
		t.Error("image_support must be true")
	}
}

func TestListPrintersEmptyIsOK(t *testing.T) {
	router := newTestRouter(t, &fakeDispatcher{})

	w, resp := doJSON(router, http.MethodGet, "/printers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	data := resp.Data.(map[string]interface{})
	if data["count"].(float64) != 0 {
		t.Errorf("count = %v, want 0", data["count"])
	}
	if printers, ok := data["printers"].([]interface{}); !ok || len(printers) != 0 {
		t.Errorf("printers = %v, want empty array", data["printers"])
	}
}

func TestPrintValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing printer name", `{"text":"hello"}`},
		{"no payload", `{"printer_name":"EPSON_TM_T20"}`},
		{"two payloads", `{"printer_name":"EPSON_TM_T20","text":"hi","raw":"G0A="}`},
		{"raw not base64", `{"printer_name":"EPSON_TM_T20","raw":"%%%"}`},
		{"malformed json", `{"printer_name":`},
		{"wrong field type", `{"printer_name":"P1","receipt":{"total":"six"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{}
			router := newTestRouter(t, dispatcher)

			w, resp := doJSON(router, http.MethodPost, "/print", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if resp.Success {
				t.Fatal("validation failure must not report success")
			}
			if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Fatalf("error = %+v, want VALIDATION_ERROR", resp.Error)
			}
			if dispatcher.sentCount() != 0 {
				t.Fatal("invalid job must never reach the dispatcher")
			}
		})
	}
}

func TestPrintReceiptSuccess(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	router := newTestRouter(t, dispatcher)

	body := `{"printer_name":"EPSON_TM_T20","receipt":{"company_name":"Corner Cafe","total":6.54,"items":[{"name":"Latte","quantity":2,"total":6.00}]}}`
	w, resp := doJSON(router, http.MethodPost, "/print", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !resp.Success {
		t.Fatal("dispatched job must report success")
	}
	if dispatcher.sentCount() != 1 {
		t.Fatalf("dispatched jobs = %d, want 1", dispatcher.sentCount())
	}

	sent := dispatcher.sent[0]
	if !bytes.HasPrefix(sent, escpos.Commands.Initialize) {
		t.Fatal("dispatched buffer must start with the initialize sequence")
	}
	if !bytes.Contains(sent, []byte("TOTAL: $6.54")) {
		t.Fatal("dispatched buffer must contain the rendered total")
	}
}

func TestPrintDispatchFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{
		sendErr: &spooler.PrintDispatchError{
			Printer: "EPSON_TM_T20",
			Diag:    "lp: The printer or class does not exist.",
		},
	}
	router := newTestRouter(t, dispatcher)

	w, resp := doJSON(router, http.MethodPost, "/print", `{"printer_name":"EPSON_TM_T20","text":"hello"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != "DISPATCH_ERROR" {
		t.Fatalf("error = %+v, want DISPATCH_ERROR", resp.Error)
	}
	if resp.Error.Details == "" {
		t.Fatal("dispatch failure must carry the OS diagnostic")
	}
}

func TestUnexpectedFailureLogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	dispatcher := &fakeDispatcher{sendErr: errors.New("queue manager crashed")}
	router := newTestRouterWithLogger(t, dispatcher, zap.New(core))

	w, resp := doJSON(router, http.MethodPost, "/print", `{"printer_name":"P1","text":"hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if resp.RequestID == "" {
		t.Fatal("response must carry a request ID")
	}

	entries := logs.FilterMessage("Unexpected dispatch failure").All()
	if len(entries) != 1 {
		t.Fatalf("logged failures = %d, want 1", len(entries))
	}
	if rid, _ := entries[0].ContextMap()["request_id"].(string); rid != resp.RequestID {
		t.Fatalf("logged request_id = %q, want %q", rid, resp.RequestID)
	}
}

func TestPrintRawEndpoint(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	router := newTestRouter(t, dispatcher)

	w, _ := doJSON(router, http.MethodPost, "/print-raw", `{"printer_name":"P1","data":"G0BoaQ=="}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if dispatcher.sentCount() != 1 {
		t.Fatal("raw job must be dispatched")
	}
	if !bytes.Equal(dispatcher.sent[0], []byte{0x1B, 0x40, 'h', 'i'}) {
		t.Fatalf("dispatched bytes = % X, want decoded payload", dispatcher.sent[0])
	}
}

func TestCashDrawerEndpoint(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	router := newTestRouter(t, dispatcher)

	w, _ := doJSON(router, http.MethodPost, "/cash-drawer", `{"printer_name":"P1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if dispatcher.sentCount() != 1 {
		t.Fatal("drawer job must be dispatched")
	}
	if !bytes.HasSuffix(dispatcher.sent[0], escpos.Commands.DrawerKickPin0) {
		t.Fatalf("dispatched bytes = % X, want drawer kick suffix", dispatcher.sent[0])
	}
}

func TestConcurrentPrints(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	router := newTestRouter(t, dispatcher)

	const jobs = 100
	var wg sync.WaitGroup
	errs := make(chan string, jobs)

	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"printer_name":"P1","text":"job %d"}`, n)
			w, _ := doJSON(router, http.MethodPost, "/print", body)
			if w.Code != http.StatusOK {
				errs <- fmt.Sprintf("job %d: status %d", n, w.Code)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
	if dispatcher.sentCount() != jobs {
		t.Fatalf("dispatched jobs = %d, want %d", dispatcher.sentCount(), jobs)
	}
}

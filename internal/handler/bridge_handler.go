// internal/handler/bridge_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-bridge/internal/model"
	"print-bridge/internal/service"
	"print-bridge/internal/spooler"
	"print-bridge/internal/utils"
)

// BridgeHandler owns the bridge's HTTP endpoint surface. Each request is
// independent; no endpoint blocks waiting on another.
type BridgeHandler struct {
	printService *service.PrintService
	events       *EventBus
	logger       *utils.ServiceLogger
}

// NewBridgeHandler creates a new bridge handler
func NewBridgeHandler(printService *service.PrintService, events *EventBus, logger *zap.Logger) *BridgeHandler {
	return &BridgeHandler{
		printService: printService,
		events:       events,
		logger:       utils.NewServiceLogger(logger, "bridge-handler"),
	}
}

// Status reports service identity and printer availability. Always 200
// when the process is reachable: reachability IS the health signal the
// browser client cares about.
func (h *BridgeHandler) Status(c *gin.Context) {
	status := h.printService.Status(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Bridge is running", status)
}

// ListPrinters returns the host's printers. An empty list is a valid
// answer, never an error.
func (h *BridgeHandler) ListPrinters(c *gin.Context) {
	printers := h.printService.ListPrinters(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Printers listed", gin.H{
		"printers": printers,
		"count":    len(printers),
	})
}

// Print accepts a job carrying exactly one of raw, receipt or text and
// dispatches it to the named printer.
func (h *BridgeHandler) Print(c *gin.Context) {
	var job model.PrintJob
	if err := c.ShouldBindJSON(&job); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.respondDispatch(c, &job, h.printService.Print(c.Request.Context(), &job), "Print job dispatched")
}

// PrintRaw accepts pre-encoded ESC/POS bytes, skipping the command
// builder entirely.
func (h *BridgeHandler) PrintRaw(c *gin.Context) {
	var job model.RawPrintJob
	if err := c.ShouldBindJSON(&job); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	raw := model.PrintJob{PrinterName: job.PrinterName, Raw: job.Data}
	h.respondDispatch(c, &raw, h.printService.PrintRaw(c.Request.Context(), &job), "Raw job dispatched")
}

// OpenDrawer fires the cash drawer kick pulse.
func (h *BridgeHandler) OpenDrawer(c *gin.Context) {
	var job model.DrawerJob
	if err := c.ShouldBindJSON(&job); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	drawer := model.PrintJob{PrinterName: job.PrinterName}
	h.respondDispatch(c, &drawer, h.printService.OpenDrawer(c.Request.Context(), &job), "Drawer kick dispatched")
}

// respondDispatch maps the service error taxonomy onto HTTP statuses and
// publishes the job outcome to websocket subscribers.
func (h *BridgeHandler) respondDispatch(c *gin.Context, job *model.PrintJob, err error, okMessage string) {
	var validationErr *service.ValidationError
	var dispatchErr *spooler.PrintDispatchError

	switch {
	case err == nil:
		h.events.PublishJobResult(job.PrinterName, true, "")
		utils.SuccessResponse(c, http.StatusOK, okMessage, nil)

	case errors.As(err, &validationErr):
		// Never reaches the dispatcher; nothing to broadcast.
		utils.ErrorResponse(c, http.StatusBadRequest, "Request validation failed", err)

	case errors.As(err, &dispatchErr):
		h.events.PublishJobResult(job.PrinterName, false, err.Error())
		utils.ErrorResponse(c, http.StatusInternalServerError, "Print dispatch failed", err)

	default:
		requestLogger := utils.LoggerWithRequestID(h.logger.Logger, c.GetString("request_id"))
		requestLogger.Error("Unexpected dispatch failure", zap.Error(err))
		h.events.PublishJobResult(job.PrinterName, false, err.Error())
		utils.ErrorResponse(c, http.StatusInternalServerError, "Print dispatch failed", err)
	}
}

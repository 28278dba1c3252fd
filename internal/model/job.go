// internal/model/job.go
package model

// Receipt is the structured ticket the POS UI submits for printing. All
// optional fields are omitted from the printed output when absent; the
// builder never fails on missing data.
type Receipt struct {
	Logo            string        `json:"logo,omitempty"` // data URI, URL or bare base64
	CompanyName     string        `json:"company_name,omitempty"`
	HeaderLines     []string      `json:"header_lines,omitempty"`
	OrderNumber     string        `json:"order_number,omitempty"`
	Date            string        `json:"date,omitempty"`
	Cashier         string        `json:"cashier,omitempty"`
	Items           []ReceiptItem `json:"items,omitempty"`
	Subtotal        *float64      `json:"subtotal,omitempty"`
	TaxAmount       *float64      `json:"tax_amount,omitempty"`
	Discount        *float64      `json:"discount,omitempty"`
	Total           float64       `json:"total"`
	PaymentMethod   string        `json:"payment_method,omitempty"`
	CashReceived    *float64      `json:"cash_received,omitempty"`
	Change          *float64      `json:"change,omitempty"`
	FooterLines     []string      `json:"footer_lines,omitempty"`
	ThankYouMessage string        `json:"thank_you_message,omitempty"`
	OpenCashDrawer  bool          `json:"open_cash_drawer,omitempty"`
	// CutPaper defaults to true when omitted by the caller.
	CutPaper *bool `json:"cut_paper,omitempty"`
}

// ShouldCut reports whether the builder must append a cut command.
func (r *Receipt) ShouldCut() bool {
	return r.CutPaper == nil || *r.CutPaper
}

// ReceiptItem is a single sold line on a receipt.
type ReceiptItem struct {
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Total     float64  `json:"total"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// PrintJob is the unit of work submitted to the bridge. Exactly one of
// Raw, Receipt or Text must be set. Jobs are never persisted.
type PrintJob struct {
	PrinterName string   `json:"printer_name"`
	Raw         string   `json:"raw,omitempty"` // base64 ESC/POS bytes
	Receipt     *Receipt `json:"receipt,omitempty"`
	Text        string   `json:"text,omitempty"`
}

// PayloadCount returns how many payload variants the job carries.
func (j *PrintJob) PayloadCount() int {
	n := 0
	if j.Raw != "" {
		n++
	}
	if j.Receipt != nil {
		n++
	}
	if j.Text != "" {
		n++
	}
	return n
}

// RawPrintJob is the /print-raw request body: pre-encoded bytes only.
type RawPrintJob struct {
	PrinterName string `json:"printer_name"`
	Data        string `json:"data"` // base64
}

// DrawerJob is the /cash-drawer request body.
type DrawerJob struct {
	PrinterName string `json:"printer_name"`
	Pin         *int   `json:"pin,omitempty"` // 0/2 or 1/5, default 0
}

// PrinterDescriptor describes one printer known to the host OS. The list
// is re-queried on every request; nothing is cached server-side.
type PrinterDescriptor struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// BridgeStatus is the /status payload consumed by the browser client.
type BridgeStatus struct {
	Version      string `json:"version"`
	Platform     string `json:"platform"`
	PrinterCount int    `json:"printer_count"`
	ImageSupport bool   `json:"image_support"`
}

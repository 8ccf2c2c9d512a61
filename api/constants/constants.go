package constants

// Supported upload extensions
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
	ExtPDF  = ".pdf"
)

// SupportedImportExtensions is the set accepted by the multi-format importer.
// The pairing upload additionally accepts ExtPDF.
var SupportedImportExtensions = []string{ExtCSV, ExtXLSX, ExtXLS}

// HeaderKeywords are the cell values that mark a row as a header candidate
// when scanning spreadsheets whose real header sits below summary rows.
var HeaderKeywords = []string{"SR.NO", "DATE", "ID NAME", "UTR", "AMOUNT", "STATUS", "USERNAME", "REMARK"}

// Canonical transaction types
const (
	TypePayin          = "PAYIN"
	TypePayout         = "PAYOUT"
	TypeDeposit        = "DEPOSIT"
	TypeWithdrawal     = "WITHDRAWAL"
	TypeManualWithdraw = "MANUAL_WITHDRAW"
)

// Canonical statuses
const (
	StatusSuccess   = "SUCCESS"
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
)

// SelfAgentName is the agent sentinel representing house traffic. Distinct
// from a NULL agent reference, which means the user has not been paired yet.
const SelfAgentName = "self"

// DateFormat is the canonical date-only layout used for last_played_date.
const DateFormat = "2006-01-02"

// Common error messages
const (
	ErrNoFileUploaded     = "No file uploaded"
	ErrCompanyRequired    = "Company name is required"
	ErrCompanyIDRequired  = "Company ID is required for import"
	ErrUnsupportedFormat  = "Unsupported file format"
	ErrInvalidJSON        = "Invalid JSON"
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrNotValidPanelFile  = "Not a valid panel file"
	ErrNoRecordsToProcess = "No records to process"
)

// Content types
const (
	ContentTypeJSON   = "application/json"
	HeaderContentType = "Content-Type"
)

// NBSP is stripped from cells when normalizing header and value text.
const NBSP = " "

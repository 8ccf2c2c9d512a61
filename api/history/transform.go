package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"PanelLedger/api/companies"
	"PanelLedger/api/constants"
	"PanelLedger/api/users"
	"PanelLedger/internal/dateparse"
	"PanelLedger/internal/fileparse"
)

// TransformFunc maps one raw row plus a resolved company context into a
// canonical history record. Transformers resolve users through the shared
// per-import resolver; every other effect is pure.
type TransformFunc func(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver) (*Record, error)

// transformers dispatches on detected sheet type. Types without a dedicated
// transformer fall through to the generic one.
var transformers = map[SheetType]TransformFunc{
	SheetTypePayin:           transformPayinRow,
	SheetTypePayout:          transformPayoutRow,
	SheetTypeManualWithdraw:  transformManualWithdrawRow,
	SheetTypeDepositSheet:    transformDepositSheetRow,
	SheetTypeWithdrawalSheet: transformWithdrawalSheetRow,
}

// TransformerFor returns the transformer for a sheet type. Unknown and
// generic types get the alias-probing fallback bound to that type label.
func TransformerFor(t SheetType) TransformFunc {
	if fn, ok := transformers[t]; ok {
		return fn
	}
	return func(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver) (*Record, error) {
		return transformGenericRow(ctx, row, company, resolver, t)
	}
}

// firstValue returns the first non-empty value among the given column
// aliases, matched exactly as exported by the panel.
func firstValue(row fileparse.Row, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

// parseAmount parses a money amount, zero on any failure. Rows are never
// rejected for an unparseable amount.
func parseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs()
}

func statusOr(raw, fallback string) string {
	if s := strings.ToUpper(strings.TrimSpace(raw)); s != "" {
		return s
	}
	return fallback
}

// payoutStatus maps APPROVED to SUCCESS for payout-like types.
func payoutStatus(raw string) string {
	s := statusOr(raw, constants.StatusPending)
	if s == constants.StatusApproved {
		return constants.StatusSuccess
	}
	return s
}

func transformPayinRow(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver) (*Record, error) {
	user, err := resolver.GetOrCreate(ctx, row["User"], company.ID)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		PlayedAt: dateparse.ToTimestamp(row["Updated At"]),
		Amount:   parseAmount(firstValue(row, "Recieved Amount", "Requested Amount")),
		Type:     constants.TypePayin,
		Status:   statusOr(row["Status"], constants.StatusPending),
		Config: map[string]interface{}{
			"original_id":            row["Id"],
			"upi_short_code":         row["UPI Short Code"],
			"commission":             parseAmount(row["PayIn Merchant Commission"]).String(),
			"requested_amount":       parseAmount(row["Requested Amount"]).String(),
			"received_amount":        parseAmount(row["Recieved Amount"]).String(),
			"bank_utr":               row["Bank UTR"],
			"bank_name":              row["Bank Name"],
			"vendor_code":            row["Vendor Code"],
			"original_merchant_code": firstValue(row, "Merchant Code"),
			"selected_company_name":  company.Name,
			"merchant_order_id":      row["Merchant Order ID"],
			"updated_at":             row["Updated At"],
			"created_at":             row["Created At"],
		},
		CreatedAt: dateparse.ToTimestamp(row["Created At"]),
		UpdatedAt: dateparse.ToTimestamp(row["Updated At"]),
		CompanyID: company.ID,
	}, nil
}

func transformPayoutRow(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver) (*Record, error) {
	user, err := resolver.GetOrCreate(ctx, row["User"], company.ID)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		PlayedAt: dateparse.ToTimestamp(row["Updated At"]),
		Amount:   parseAmount(row["Requested Amount"]),
		Type:     constants.TypePayout,
		Status:   payoutStatus(row["Status"]),
		Config: map[string]interface{}{
			"sno":                    row["SNO"],
			"original_merchant_code": firstValue(row, "Merchant Code"),
			"selected_company_name":  company.Name,
			"merchant_order_id":      row["Merchant Order ID"],
			"commission":             parseAmount(row["Payout Commission"]).String(),
			"utr":                    row["UTR"],
			"description":            row["Description"],
			"vendor_code":            row["Vendor Code"],
			"nick_name":              row["Nick Name"],
			"updated_at":             row["Updated At"],
			"created_at":             row["Created At"],
		},
		CreatedAt: dateparse.ToTimestamp(row["Created At"]),
		UpdatedAt: dateparse.ToTimestamp(row["Updated At"]),
		CompanyID: company.ID,
	}, nil
}

func transformManualWithdrawRow(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver) (*Record, error) {
	user, err := resolver.GetOrCreate(ctx, row["UserName"], company.ID)
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		PlayedAt: dateparse.ToTimestamp(row["PaymentDate"]),
		Amount:   parseAmount(row["Amount"]),
		Type:     constants.TypeManualWithdraw,
		Status:   statusOr(row["Status"], constants.StatusPending),
		Config: map[string]interface{}{
			"withdraw_name": row["WithdrawName"],
			"remark":        row["Remark"],
			"entry_by":      row["EnteryBy"],
			"agent_remark":  row["AgentRemark"],
			"account_data":  row["AccountData"],
			"merchant_code": company.Name,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: dateparse.ToTimestamp(row["PaymentDate"]),
		CompanyID: company.ID,
	}, nil
}

func transformDepositSheetRow(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver) (*Record, error) {
	userID := firstValue(row, "ID NAME", "UserName", "User")
	if userID == "" {
		return nil, fmt.Errorf("no user id found in deposit row")
	}
	user, err := resolver.GetOrCreate(ctx, userID, company.ID)
	if err != nil {
		return nil, err
	}

	date := firstValue(row, "DATE", "Date")
	return &Record{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		PlayedAt: dateparse.ToTimestamp(date),
		Amount:   parseAmount(firstValue(row, "AMOUNT", "Amount")),
		Type:     constants.TypeDeposit,
		Status:   statusOr(firstValue(row, "STATUS", "Status"), constants.StatusPending),
		Config: map[string]interface{}{
			"utr":           firstValue(row, "UTR", "Utr"),
			"bank":          firstValue(row, "BANK", "Bank"),
			"site":          firstValue(row, "SITE", "Site"),
			"refill":        firstValue(row, "REFILL", "Refill"),
			"merchant_code": company.Name,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: dateparse.ToTimestamp(date),
		CompanyID: company.ID,
	}, nil
}

func transformWithdrawalSheetRow(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver) (*Record, error) {
	userID := firstValue(row, "ID NAME", "UserName", "User")
	if userID == "" {
		return nil, fmt.Errorf("no user id found in withdrawal row")
	}
	user, err := resolver.GetOrCreate(ctx, userID, company.ID)
	if err != nil {
		return nil, err
	}

	date := firstValue(row, "DATE", "Date")
	return &Record{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		PlayedAt: dateparse.ToTimestamp(date),
		Amount:   parseAmount(firstValue(row, "AMOUNT", "Amount")),
		Type:     constants.TypeWithdrawal,
		Status:   statusOr(firstValue(row, "STATUS", "Status"), constants.StatusPending),
		Config: map[string]interface{}{
			"utr":           firstValue(row, "UTR", "Utr"),
			"bank":          firstValue(row, "BANK", "Bank"),
			"panel":         firstValue(row, "PANEL", "Site"),
			"point":         firstValue(row, "POINT", "Point"),
			"merchant_code": company.Name,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: dateparse.ToTimestamp(date),
		CompanyID: company.ID,
	}, nil
}

// transformGenericRow probes a prioritized list of common aliases for user,
// amount, date and status before giving up. Every source column travels in
// the config blob verbatim so nothing is lost for audit.
func transformGenericRow(ctx context.Context, row fileparse.Row, company *companies.Company, resolver *users.Resolver, sheetType SheetType) (*Record, error) {
	userField := firstValue(row, "User", "user", "User ID", "user_id", "UserName", "ID NAME")
	if userField == "" {
		return nil, fmt.Errorf("no user field found in row")
	}
	user, err := resolver.GetOrCreate(ctx, userField, company.ID)
	if err != nil {
		return nil, err
	}

	amountField := firstValue(row, "Amount", "amount", "Transaction Amount", "Requested Amount", "Received Amount")
	dateField := firstValue(row, "Updated At", "Created At", "Date", "date", "PaymentDate")

	original := make(map[string]interface{}, len(row))
	for k, v := range row {
		original[k] = v
	}

	playedAt := time.Now().UTC()
	if dateField != "" {
		playedAt = dateparse.ToTimestamp(dateField)
	}

	return &Record{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		PlayedAt: playedAt,
		Amount:   parseAmount(amountField),
		Type:     strings.ToUpper(string(sheetType)),
		Status:   statusOr(firstValue(row, "Status", "status"), constants.StatusCompleted),
		Config: map[string]interface{}{
			"sheet_type":             string(sheetType),
			"original_merchant_code": firstValue(row, "Merchant Code", "MerchantCode", "SITE", "Site", "PANEL", "Panel"),
			"selected_company_name":  company.Name,
			"original_data":          original,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		CompanyID: company.ID,
	}, nil
}

package jobs

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PanelLedger/api/history"
	"PanelLedger/internal/config"
	"PanelLedger/internal/telegram"
)

// Reporter generates the scheduled report artifacts and hands them to the
// messaging channel.
type Reporter struct {
	dao *history.ReportsDAO
	tg  *telegram.Client
}

func NewReporter(db *sql.DB, tg *telegram.Client) *Reporter {
	return &Reporter{dao: history.NewReportsDAO(db), tg: tg}
}

// splitIDColumns packs client ids into comma-joined columns of at most
// MaxIDsPerColumn entries, spilling into numbered continuation columns.
func splitIDColumns(ids []string) []string {
	columns := []string{}
	for i := 0; i < len(ids); i += config.MaxIDsPerColumn {
		end := i + config.MaxIDsPerColumn
		if end > len(ids) {
			end = len(ids)
		}
		columns = append(columns, strings.Join(ids[i:end], ","))
	}
	return columns
}

func padColumns(cols []string, width int) []string {
	for len(cols) < width {
		cols = append(cols, "")
	}
	return cols
}

// GenerateReportCSV writes agent report rows to
// "<reportType>_report_<date>.csv" in the temp directory, with path-unsafe
// characters in the date replaced.
func GenerateReportCSV(reports []history.AgentReportRow, reportType, date string) (string, error) {
	safeDate := strings.ReplaceAll(date, "/", "-")
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s_report_%s.csv", reportType, safeDate))

	maxActive, maxInactive := 0, 0
	activeCols := make([][]string, len(reports))
	inactiveCols := make([][]string, len(reports))
	for i, r := range reports {
		activeCols[i] = splitIDColumns(r.ActiveClientIDs)
		inactiveCols[i] = splitIDColumns(r.InactiveClientIDs)
		if len(activeCols[i]) > maxActive {
			maxActive = len(activeCols[i])
		}
		if len(inactiveCols[i]) > maxInactive {
			maxInactive = len(inactiveCols[i])
		}
	}

	header := []string{"agent", "total_clients", "active_count", "inactive_count"}
	for i := 1; i <= maxActive; i++ {
		header = append(header, fmt.Sprintf("active_clients_%d", i))
	}
	for i := 1; i <= maxInactive; i++ {
		header = append(header, fmt.Sprintf("inactive_clients_%d", i))
	}

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for i, r := range reports {
		row := []string{
			r.AgentName,
			fmt.Sprintf("%d", r.ActiveClientsCount+r.InactiveClientsCount),
			fmt.Sprintf("%d", r.ActiveClientsCount),
			fmt.Sprintf("%d", r.InactiveClientsCount),
		}
		row = append(row, padColumns(activeCols[i], maxActive)...)
		row = append(row, padColumns(inactiveCols[i], maxInactive)...)
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	log.Printf("[INFO] generated CSV: %s", path)
	return path, nil
}

// sendAndRemove delivers a generated artifact and deletes it afterwards.
func (r *Reporter) sendAndRemove(ctx context.Context, path string) {
	if err := r.tg.SendDocumentWithRetry(ctx, path); err != nil {
		log.Printf("[ERROR] failed to send report %s: %v", path, err)
	}
	if err := os.Remove(path); err != nil {
		log.Printf("[ERROR] failed to delete report %s: %v", path, err)
	}
}

// RunDaily produces the 7-day agent partition and the unassigned-users
// report and delivers both.
func (r *Reporter) RunDaily(ctx context.Context) {
	date := time.Now().Format("02/01/2006")
	log.Println("[INFO] daily report run started for", date)

	reports, err := r.dao.GetDailyAgentReport(ctx)
	if err != nil {
		log.Printf("[ERROR] daily agent report query: %v", err)
	} else if len(reports) > 0 {
		if path, err := GenerateReportCSV(reports, "daily", date); err != nil {
			log.Printf("[ERROR] daily report CSV: %v", err)
		} else {
			r.sendAndRemove(ctx, path)
		}
	}

	unassigned, err := r.dao.GetUnassignedUsersReport(ctx)
	if err != nil {
		log.Printf("[ERROR] unassigned users query: %v", err)
		return
	}
	if len(unassigned) == 0 {
		log.Println("[INFO] no unassigned users found")
		return
	}
	if path, err := GenerateReportCSV(unassigned, "unassigned", date); err != nil {
		log.Printf("[ERROR] unassigned report CSV: %v", err)
	} else {
		r.sendAndRemove(ctx, path)
	}
}

// RunHourly produces the current business day's active-clients report and
// the global summary message.
func (r *Reporter) RunHourly(ctx context.Context) {
	now := time.Now()
	businessDate := history.BusinessDate(now)
	log.Println("[INFO] hourly report run started for", businessDate)

	reports, err := r.dao.GetHourlyActiveClients(ctx, businessDate)
	if err != nil {
		log.Printf("[ERROR] hourly active clients query: %v", err)
	} else if len(reports) > 0 {
		if path, err := GenerateReportCSV(reports, "hourly-active-clients", businessDate); err != nil {
			log.Printf("[ERROR] hourly report CSV: %v", err)
		} else {
			r.sendAndRemove(ctx, path)
		}
	}

	summary, err := r.dao.GetHourlySummary(ctx, businessDate, now)
	if err != nil {
		log.Printf("[ERROR] hourly summary query: %v", err)
		return
	}
	totals, err := r.dao.GetHourlyAgentTotals(ctx, businessDate)
	if err != nil {
		log.Printf("[ERROR] hourly agent totals query: %v", err)
		return
	}
	if err := r.tg.SendMessage(ctx, FormatHourlySummary(summary, totals)); err != nil {
		log.Printf("[ERROR] sending hourly summary: %v", err)
	}
}

// FormatHourlySummary renders the hourly totals message.
func FormatHourlySummary(summary *history.HourlySummary, totals []history.AgentTotalsRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Hourly Summary</b> %s\n", summary.Time)
	fmt.Fprintf(&b, "Deposits: %s\n", summary.TotalDepositAmount.StringFixed(2))
	fmt.Fprintf(&b, "Withdrawals: %s\n", summary.TotalWithdrawalAmount.StringFixed(2))
	fmt.Fprintf(&b, "Reversals: %s\n", summary.TotalReversalAmount.StringFixed(2))
	fmt.Fprintf(&b, "Active users: %d\n", summary.UserCount)
	for _, t := range totals {
		fmt.Fprintf(&b, "\n%s: %d clients, in %s, out %s",
			t.AgentName, t.ActiveClientsCount,
			t.TotalDepositAmount.StringFixed(2), t.TotalWithdrawalAmount.StringFixed(2))
	}
	return b.String()
}

package users

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"PanelLedger/api/agents"
	"PanelLedger/api/companies"
	"PanelLedger/internal/fileparse"
)

// PairingInput is one row of the pairing workflow: an external user id
// paired with the company it belongs to and, optionally, an agent name.
type PairingInput struct {
	UserID      string `json:"user_id"`
	CompanyName string `json:"company_name"`
	AgentName   string `json:"agent_name"`
}

// PairingResult summarizes a bulk pairing run.
type PairingResult struct {
	CreatedCount int      `json:"created_count"`
	PairedCount  int      `json:"paired_count"`
	SkippedCount int      `json:"skipped_count"`
	Errors       []string `json:"errors"`
}

// CreateUsers resolves company and agent names to ids and upserts each user,
// assigning the agent when one is named. "self" pairs like any other agent
// name (constants.SelfAgentName is reserved and case-normalized, nothing
// more): an unpaired user has a NULL agent reference, a house-traffic user
// points at the "self" agent row. Rows missing a user id or company are
// skipped with a collected error, never fatal.
func CreateUsers(ctx context.Context, pool *pgxpool.Pool, items []PairingInput) (*PairingResult, error) {
	getCompany := func(ctx context.Context, name string) (*companies.Company, error) {
		return companies.GetOrCreateCompany(ctx, pool, name)
	}
	getAgent := func(ctx context.Context, name string) (*agents.Agent, error) {
		return agents.GetOrCreateAgent(ctx, pool, name)
	}
	return createUsers(ctx, NewPgStore(pool), getCompany, getAgent, items)
}

func createUsers(
	ctx context.Context,
	store Store,
	getCompany func(context.Context, string) (*companies.Company, error),
	getAgent func(context.Context, string) (*agents.Agent, error),
	items []PairingInput,
) (*PairingResult, error) {
	res := &PairingResult{Errors: []string{}}
	companyMemo := make(map[string]*companies.Company)
	agentMemo := make(map[string]*agents.Agent)

	for i, item := range items {
		externalID := strings.TrimSpace(item.UserID)
		companyName := strings.TrimSpace(item.CompanyName)
		if externalID == "" || companyName == "" {
			res.SkippedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: user_id and company_name are required", i+1))
			continue
		}

		company, ok := companyMemo[strings.ToLower(companyName)]
		if !ok {
			var err error
			company, err = getCompany(ctx, companyName)
			if err != nil {
				res.SkippedCount++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: company %s: %v", i+1, companyName, err))
				continue
			}
			companyMemo[strings.ToLower(companyName)] = company
		}

		var agentID *string
		agentName := agents.NormalizeName(item.AgentName)
		if agentName != "" {
			agent, ok := agentMemo[agentName]
			if !ok {
				var err error
				agent, err = getAgent(ctx, agentName)
				if err != nil {
					res.SkippedCount++
					res.Errors = append(res.Errors, fmt.Sprintf("row %d: agent %s: %v", i+1, agentName, err))
					continue
				}
				agentMemo[agentName] = agent
			}
			agentID = &agent.ID
		}

		existing, err := store.GetByExternalID(ctx, externalID)
		if err != nil {
			res.SkippedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: user %s: %v", i+1, externalID, err))
			continue
		}
		if existing == nil {
			if _, err := store.Upsert(ctx, UpsertPayload{
				UserID:    externalID,
				CompanyID: company.ID,
				AgentID:   agentID,
			}); err != nil {
				res.SkippedCount++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: user %s: %v", i+1, externalID, err))
				continue
			}
			res.CreatedCount++
		} else if agentID != nil {
			// re-pairing an existing user only touches the agent reference,
			// never the aggregate columns
			if err := store.AssignAgent(ctx, externalID, *agentID); err != nil {
				res.SkippedCount++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: user %s: %v", i+1, externalID, err))
				continue
			}
		}
		if agentID != nil {
			res.PairedCount++
		}
	}

	log.Printf("[INFO] pairing run: created=%d paired=%d skipped=%d", res.CreatedCount, res.PairedCount, res.SkippedCount)
	return res, nil
}

// PairingsFromRows extracts pairing inputs from parsed tabular rows. Column
// labels follow the panels' exports: Username / ID Name for the user id,
// Company for the company, Agent for the agent.
func PairingsFromRows(rows []fileparse.Row, defaultCompany string) []PairingInput {
	items := make([]PairingInput, 0, len(rows))
	for _, row := range rows {
		item := PairingInput{CompanyName: defaultCompany}
		for key, val := range row {
			switch strings.ToUpper(strings.TrimSpace(key)) {
			case "USERNAME", "ID NAME", "USER ID", "USER_ID":
				item.UserID = val
			case "COMPANY", "COMPANY NAME":
				item.CompanyName = val
			case "AGENT", "AGENT NAME":
				item.AgentName = val
			}
		}
		if strings.TrimSpace(item.UserID) != "" {
			items = append(items, item)
		}
	}
	return items
}

package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PanelLedger/api/agents"
	"PanelLedger/api/companies"
	"PanelLedger/api/constants"
)

func pairingResolvers() (func(context.Context, string) (*companies.Company, error), func(context.Context, string) (*agents.Agent, error)) {
	getCompany := func(_ context.Context, name string) (*companies.Company, error) {
		return &companies.Company{ID: "co-" + name, Name: name}, nil
	}
	getAgent := func(_ context.Context, name string) (*agents.Agent, error) {
		return &agents.Agent{ID: "ag-" + name, Name: name}, nil
	}
	return getCompany, getAgent
}

func TestCreateUsersPairsSelfAgent(t *testing.T) {
	store := newFakeStore()
	getCompany, getAgent := pairingResolvers()

	res, err := createUsers(context.Background(), store, getCompany, getAgent, []PairingInput{
		{UserID: "house1", CompanyName: "Anna247", AgentName: "Self"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreatedCount)
	assert.Equal(t, 1, res.PairedCount)
	assert.Equal(t, 0, res.SkippedCount)

	u := store.users["house1"]
	require.NotNil(t, u)
	require.NotNil(t, u.AgentID, "house-traffic user must point at the self agent, not NULL")
	assert.Equal(t, "ag-"+constants.SelfAgentName, *u.AgentID)
}

func TestCreateUsersLeavesBlankAgentUnpaired(t *testing.T) {
	store := newFakeStore()
	getCompany, getAgent := pairingResolvers()

	res, err := createUsers(context.Background(), store, getCompany, getAgent, []PairingInput{
		{UserID: "p1", CompanyName: "Skyexch"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreatedCount)
	assert.Equal(t, 0, res.PairedCount)

	u := store.users["p1"]
	require.NotNil(t, u)
	assert.Nil(t, u.AgentID)
}

func TestCreateUsersReassignsExistingUser(t *testing.T) {
	store := newFakeStore()
	old := "ag-old"
	store.users["p1"] = &User{ID: "id-p1", UserID: "p1", CompanyID: "co-Skyexch", AgentID: &old}
	getCompany, getAgent := pairingResolvers()

	res, err := createUsers(context.Background(), store, getCompany, getAgent, []PairingInput{
		{UserID: "p1", CompanyName: "Skyexch", AgentName: "Rashid"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreatedCount)
	assert.Equal(t, 1, res.PairedCount)
	assert.Equal(t, 1, store.assignCalls)
	assert.Equal(t, 0, store.upsertCalls, "re-pairing must not touch the aggregate upsert")
	assert.Equal(t, "ag-rashid", *store.users["p1"].AgentID)
}

func TestCreateUsersMemoizesAgentLookups(t *testing.T) {
	store := newFakeStore()
	getCompany, _ := pairingResolvers()
	agentLookups := 0
	getAgent := func(_ context.Context, name string) (*agents.Agent, error) {
		agentLookups++
		return &agents.Agent{ID: "ag-" + name, Name: name}, nil
	}

	_, err := createUsers(context.Background(), store, getCompany, getAgent, []PairingInput{
		{UserID: "p1", CompanyName: "Skyexch", AgentName: "rashid"},
		{UserID: "p2", CompanyName: "Skyexch", AgentName: "RASHID"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, agentLookups)
}

func TestCreateUsersSkipsIncompleteRows(t *testing.T) {
	store := newFakeStore()
	getCompany, getAgent := pairingResolvers()

	res, err := createUsers(context.Background(), store, getCompany, getAgent, []PairingInput{
		{CompanyName: "Skyexch"},
		{UserID: "p1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SkippedCount)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, 0, res.CreatedCount)
}

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleData = `{
  "clients": [
    {"id": "1", "name": "Tony Stark", "email": "ironman@gmail.com", "phone": "343-567-4333"},
    {"id": "2", "name": "Natasha Romanova", "email": "blackwidow@gmail.com", "phone": "223-567-3322"}
  ],
  "projects": [
    {"id": "1", "name": "eCommerce Website", "description": "Storefront", "status": "In Progress", "clientId": "1"},
    {"id": "2", "name": "Dating App", "description": "Mobile app", "clientId": "2"},
    {"id": "3", "name": "Orphan", "description": "No client", "status": "Completed", "clientId": "99"}
  ]
}`

func TestSeed(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	stats, err := Seed(ctx, st, []byte(sampleData))
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Clients: 2, Projects: 3}, stats)

	clients, err := st.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Tony Stark", clients[0].Name)

	projects, err := st.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)

	assert.Equal(t, clients[0].ID, projects[0].ClientID)
	assert.Equal(t, StatusInProgress, projects[0].Status)
	assert.Equal(t, clients[1].ID, projects[1].ClientID)
	assert.Equal(t, StatusNotStarted, projects[1].Status)
	assert.Equal(t, "99", projects[2].ClientID)
}

func TestSeed_InvalidInput(t *testing.T) {
	ctx := context.Background()

	_, err := Seed(ctx, NewMemory(), []byte(`{"clients": [`))
	assert.Error(t, err)

	stats, err := Seed(ctx, NewMemory(), []byte(`{"projects": [{"name": "x", "status": "Paused"}]}`))
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, 0, stats.Projects)
}

func TestSeed_ShippedSampleData(t *testing.T) {
	data, err := os.ReadFile("../testdata/sample_data.json")
	require.NoError(t, err)

	ctx := context.Background()
	st := NewMemory()
	stats, err := Seed(ctx, st, data)
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Clients: 5, Projects: 6}, stats)

	projects, err := st.ListProjects(ctx)
	require.NoError(t, err)
	for _, p := range projects {
		c, err := st.GetClient(ctx, p.ClientID)
		require.NoError(t, err)
		assert.NotNil(t, c, "project %q lost its client", p.Name)
	}
}

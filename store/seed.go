package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// SeedStats counts the documents created by Seed.
type SeedStats struct {
	Clients  int
	Projects int
}

// Seed loads sample data of the form {"clients": [...], "projects": [...]}.
// Clients are created first; a project clientId naming a seeded client's sample id is
// rewritten to that client's new id, any other value is kept as is.
func Seed(ctx context.Context, st Store, data []byte) (SeedStats, error) {
	var stats SeedStats

	if !gjson.ValidBytes(data) {
		return stats, errors.New("seed data is not valid JSON")
	}
	doc := gjson.ParseBytes(data)

	ids := make(map[string]string)
	var err error
	doc.Get("clients").ForEach(func(_, v gjson.Result) bool {
		var c *Client
		c, err = st.CreateClient(ctx, &Client{
			Name:  v.Get("name").String(),
			Email: v.Get("email").String(),
			Phone: v.Get("phone").String(),
		})
		if err != nil {
			return false
		}
		if sampleID := v.Get("id").String(); sampleID != "" {
			ids[sampleID] = c.ID
		}
		stats.Clients++
		return true
	})
	if err != nil {
		return stats, errors.Wrapf(err, "failed to seed client #%d", stats.Clients+1)
	}

	doc.Get("projects").ForEach(func(_, v gjson.Result) bool {
		clientID := v.Get("clientId").String()
		if id, ok := ids[clientID]; ok {
			clientID = id
		}
		_, err = st.CreateProject(ctx, &Project{
			Name:        v.Get("name").String(),
			Description: v.Get("description").String(),
			Status:      v.Get("status").String(),
			ClientID:    clientID,
		})
		if err != nil {
			return false
		}
		stats.Projects++
		return true
	})
	if err != nil {
		return stats, errors.Wrapf(err, "failed to seed project #%d", stats.Projects+1)
	}

	return stats, nil
}

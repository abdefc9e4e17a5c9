package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Memory keeps documents in process. Ids are UUIDs and listings keep insertion order.
type Memory struct {
	mu sync.RWMutex

	clients      map[string]Client
	clientOrder  []string
	projects     map[string]Project
	projectOrder []string
}

func NewMemory() *Memory {
	return &Memory{
		clients:  make(map[string]Client),
		projects: make(map[string]Project),
	}
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrapf(ErrInvalidID, "cast to uuid failed for value %q", id)
	}
	return nil
}

func (m *Memory) ListClients(ctx context.Context) ([]*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Client, 0, len(m.clientOrder))
	for _, id := range m.clientOrder {
		c := m.clients[id]
		out = append(out, &c)
	}
	return out, nil
}

func (m *Memory) GetClient(ctx context.Context, id string) (*Client, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) CreateClient(ctx context.Context, c *Client) (*Client, error) {
	doc := *c
	doc.ID = uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[doc.ID] = doc
	m.clientOrder = append(m.clientOrder, doc.ID)
	return &doc, nil
}

func (m *Memory) DeleteClient(ctx context.Context, id string) (*Client, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	delete(m.clients, id)
	m.clientOrder = without(m.clientOrder, id)
	return &c, nil
}

func (m *Memory) ListProjects(ctx context.Context) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Project, 0, len(m.projectOrder))
	for _, id := range m.projectOrder {
		p := m.projects[id]
		out = append(out, &p)
	}
	return out, nil
}

func (m *Memory) GetProject(ctx context.Context, id string) (*Project, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) CreateProject(ctx context.Context, p *Project) (*Project, error) {
	doc := *p
	if err := doc.prepare(); err != nil {
		return nil, err
	}
	doc.ID = uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.projects[doc.ID] = doc
	m.projectOrder = append(m.projectOrder, doc.ID)
	return &doc, nil
}

func (m *Memory) DeleteProject(ctx context.Context, id string) (*Project, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	delete(m.projects, id)
	m.projectOrder = without(m.projectOrder, id)
	return &p, nil
}

func (m *Memory) UpdateProject(ctx context.Context, id string, update ProjectUpdate) (*Project, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	if err := update.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	update.apply(&p)
	m.projects[id] = p
	return &p, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close(ctx context.Context) error { return nil }

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// Package store holds the Client and Project documents and the backends that persist them.
package store

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// Project statuses as stored and returned to clients.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Statuses lists every valid project status keyed by its enum name.
var Statuses = map[string]string{
	"new":       StatusNotStarted,
	"progress":  StatusInProgress,
	"completed": StatusCompleted,
}

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidStatus      = errors.New("invalid project status")
	ErrUnsupportedScheme  = errors.New("unsupported data store scheme")
	errUnknownUpdateField = errors.New("unknown project field")
)

type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ClientID    string `json:"clientId"`
}

// ProjectUpdate carries the fields a caller supplied for a partial update.
// A missing key means the stored value is left untouched.
type ProjectUpdate map[string]string

// Project fields that may appear in a ProjectUpdate.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldStatus      = "status"
)

// Store is the data access context handed to every resolver.
// Lookups that match nothing return a nil document and a nil error.
type Store interface {
	ListClients(ctx context.Context) ([]*Client, error)
	GetClient(ctx context.Context, id string) (*Client, error)
	CreateClient(ctx context.Context, c *Client) (*Client, error)
	DeleteClient(ctx context.Context, id string) (*Client, error)

	ListProjects(ctx context.Context) ([]*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	CreateProject(ctx context.Context, p *Project) (*Project, error)
	DeleteProject(ctx context.Context, id string) (*Project, error)
	UpdateProject(ctx context.Context, id string, update ProjectUpdate) (*Project, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the store named by uri and verifies it is reachable.
// The scheme selects the backend: mongodb, mongodb+srv, redis, rediss or memory.
func Open(ctx context.Context, uri string, timeout time.Duration) (Store, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse connection string")
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, uri, timeout)
	case "redis", "rediss":
		return OpenRedis(ctx, uri, timeout)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
}

func validStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// prepare fills the default status and rejects values outside the enum.
func (p *Project) prepare() error {
	if p.Status == "" {
		p.Status = StatusNotStarted
	}
	if !validStatus(p.Status) {
		return errors.Wrapf(ErrInvalidStatus, "%q", p.Status)
	}
	return nil
}

func (u ProjectUpdate) validate() error {
	for field, value := range u {
		switch field {
		case FieldName, FieldDescription:
		case FieldStatus:
			if !validStatus(value) {
				return errors.Wrapf(ErrInvalidStatus, "%q", value)
			}
		default:
			return errors.Wrapf(errUnknownUpdateField, "%q", field)
		}
	}
	return nil
}

// apply writes the supplied fields onto p.
func (u ProjectUpdate) apply(p *Project) {
	if v, ok := u[FieldName]; ok {
		p.Name = v
	}
	if v, ok := u[FieldDescription]; ok {
		p.Description = v
	}
	if v, ok := u[FieldStatus]; ok {
		p.Status = v
	}
}

package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase = "mgmt_db"
	clientCollection     = "clients"
	projectCollection    = "projects"
)

type clientDocument struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
	Phone string             `bson:"phone"`
}

func (d *clientDocument) client() *Client {
	return &Client{ID: d.ID.Hex(), Name: d.Name, Email: d.Email, Phone: d.Phone}
}

type projectDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	ClientID    string             `bson:"clientId"`
}

func (d *projectDocument) project() *Project {
	return &Project{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Status:      d.Status,
		ClientID:    d.ClientID,
	}
}

// Mongo keeps clients and projects in two collections of one database.
type Mongo struct {
	client   *mongo.Client
	clients  *mongo.Collection
	projects *mongo.Collection
}

// OpenMongo connects to uri and pings the primary. The database is taken from the uri path.
func OpenMongo(ctx context.Context, uri string, timeout time.Duration) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}

	return NewMongo(client, databaseName(uri)), nil
}

func NewMongo(client *mongo.Client, database string) *Mongo {
	db := client.Database(database)
	return &Mongo{
		client:   client,
		clients:  db.Collection(clientCollection),
		projects: db.Collection(projectCollection),
	}
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, errors.Wrapf(ErrInvalidID, "cast to ObjectId failed for value %q", id)
	}
	return oid, nil
}

func (m *Mongo) ListClients(ctx context.Context) ([]*Client, error) {
	cursor, err := m.clients.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query clients")
	}
	defer cursor.Close(ctx)

	var docs []clientDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode clients")
	}

	out := make([]*Client, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].client())
	}
	return out, nil
}

func (m *Mongo) GetClient(ctx context.Context, id string) (*Client, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc clientDocument
	err = m.clients.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get client")
	}
	return doc.client(), nil
}

func (m *Mongo) CreateClient(ctx context.Context, c *Client) (*Client, error) {
	doc := clientDocument{ID: primitive.NewObjectID(), Name: c.Name, Email: c.Email, Phone: c.Phone}
	if _, err := m.clients.InsertOne(ctx, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to insert client")
	}
	return doc.client(), nil
}

func (m *Mongo) DeleteClient(ctx context.Context, id string) (*Client, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc clientDocument
	err = m.clients.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete client")
	}
	return doc.client(), nil
}

func (m *Mongo) ListProjects(ctx context.Context) ([]*Project, error) {
	cursor, err := m.projects.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query projects")
	}
	defer cursor.Close(ctx)

	var docs []projectDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode projects")
	}

	out := make([]*Project, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].project())
	}
	return out, nil
}

func (m *Mongo) GetProject(ctx context.Context, id string) (*Project, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc projectDocument
	err = m.projects.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get project")
	}
	return doc.project(), nil
}

func (m *Mongo) CreateProject(ctx context.Context, p *Project) (*Project, error) {
	in := *p
	if err := in.prepare(); err != nil {
		return nil, err
	}

	doc := projectDocument{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		ClientID:    in.ClientID,
	}
	if _, err := m.projects.InsertOne(ctx, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to insert project")
	}
	return doc.project(), nil
}

func (m *Mongo) DeleteProject(ctx context.Context, id string) (*Project, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc projectDocument
	err = m.projects.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete project")
	}
	return doc.project(), nil
}

// UpdateProject issues a $set containing only the supplied fields.
func (m *Mongo) UpdateProject(ctx context.Context, id string, update ProjectUpdate) (*Project, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	if err := update.validate(); err != nil {
		return nil, err
	}
	if len(update) == 0 {
		return m.GetProject(ctx, id)
	}

	set := bson.M{}
	for field, value := range update {
		set[field] = value
	}

	var doc projectDocument
	err = m.projects.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to update project")
	}
	return doc.project(), nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return errors.Wrap(m.client.Ping(ctx, nil), "failed to ping mongodb")
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

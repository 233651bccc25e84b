package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

const (
	FormsCollection     = "forms"
	ResponsesCollection = "responses"
	UsersCollection     = "users"

	mongoTimeout = 5 * time.Second
)

type mongoDB struct {
	client   *mongo.Client
	database string
}

func (m *mongoDB) coll(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

// NewMongoStores builds the MongoDB-backed repositories on one client.
func NewMongoStores(client *mongo.Client, database string) *Stores {
	m := &mongoDB{client: client, database: database}
	return &Stores{
		Forms:     &MongoFormRepo{m},
		Responses: &MongoResponseRepo{m},
		Users:     &MongoUserRepo{m},
	}
}

func mongoErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

type MongoFormRepo struct{ m *mongoDB }

func (r *MongoFormRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err := r.m.coll(FormsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shareLink", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *MongoFormRepo) Create(ctx context.Context, form *models.Form) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	doc := *form
	doc.ID = newID(doc.ID)
	if _, err := r.m.coll(FormsCollection).InsertOne(ctx, &doc); err != nil {
		return "", mongoErr(err)
	}
	return doc.ID, nil
}

func (r *MongoFormRepo) FindByID(ctx context.Context, id string) (*models.Form, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoFormRepo) FindByShareLink(ctx context.Context, shareLink string) (*models.Form, error) {
	return r.findOne(ctx, bson.M{"shareLink": shareLink})
}

func (r *MongoFormRepo) FindByOwner(ctx context.Context, ownerID string) ([]models.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	cur, err := r.m.coll(FormsCollection).Find(ctx, bson.M{"ownerId": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	forms := make([]models.Form, 0)
	if err := cur.All(ctx, &forms); err != nil {
		return nil, err
	}
	for i := range forms {
		normalizeForm(&forms[i])
	}
	return forms, nil
}

func (r *MongoFormRepo) Update(ctx context.Context, form *models.Form) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err := r.m.coll(FormsCollection).UpdateOne(ctx, bson.M{"_id": form.ID}, bson.M{"$set": bson.M{
		"title":     form.Title,
		"fields":    form.Fields,
		"updatedAt": form.UpdatedAt,
	}})
	return mongoErr(err)
}

func (r *MongoFormRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err := r.m.coll(FormsCollection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoFormRepo) findOne(ctx context.Context, filter bson.M) (*models.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	var f models.Form
	err := r.m.coll(FormsCollection).FindOne(ctx, filter).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	normalizeForm(&f)
	return &f, nil
}

func normalizeForm(f *models.Form) {
	if f.Fields == nil {
		f.Fields = []models.Field{}
	}
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
}

type MongoResponseRepo struct{ m *mongoDB }

func (r *MongoResponseRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err := r.m.coll(ResponsesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "formId", Value: 1}, {Key: "submittedAt", Value: 1}},
	})
	return err
}

func (r *MongoResponseRepo) Create(ctx context.Context, resp *models.Response) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	doc := *resp
	doc.ID = newID(doc.ID)
	if _, err := r.m.coll(ResponsesCollection).InsertOne(ctx, &doc); err != nil {
		return "", mongoErr(err)
	}
	return doc.ID, nil
}

func (r *MongoResponseRepo) FindByFormID(ctx context.Context, formID string) ([]models.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	cur, err := r.m.coll(ResponsesCollection).Find(ctx, bson.M{"formId": formID},
		options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]models.Response, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].SubmittedAt = out[i].SubmittedAt.UTC()
		for j := range out[i].Answers {
			out[i].Answers[j].Value = fromBSON(out[i].Answers[j].Value)
		}
	}
	return out, nil
}

func (r *MongoResponseRepo) CountByFormID(ctx context.Context, formID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	return r.m.coll(ResponsesCollection).CountDocuments(ctx, bson.M{"formId": formID})
}

func (r *MongoResponseRepo) DeleteByFormID(ctx context.Context, formID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	res, err := r.m.coll(ResponsesCollection).DeleteMany(ctx, bson.M{"formId": formID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// fromBSON converts decoded arrays back to the plain Go shapes the rest of
// the service works with.
func fromBSON(v any) any {
	switch x := v.(type) {
	case bson.A:
		items := make([]any, len(x))
		copy(items, x)
		return models.NormalizeValue(items)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	}
	return v
}

type MongoUserRepo struct{ m *mongoDB }

func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	_, err := r.m.coll(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	doc := *user
	doc.ID = newID(doc.ID)
	doc.Email = strings.ToLower(doc.Email)
	if _, err := r.m.coll(UsersCollection).InsertOne(ctx, &doc); err != nil {
		return "", mongoErr(err)
	}
	return doc.ID, nil
}

func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	var u models.User
	err := r.m.coll(UsersCollection).FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

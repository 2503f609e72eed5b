package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/umalmyha/customers-kyc/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const customersCollection = "customers"

type mongoCustomerRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoCustomerRepository(client *mongo.Client, database string) CustomerRepository {
	return &mongoCustomerRepository{
		client:     client,
		collection: client.Database(database).Collection(customersCollection),
	}
}

func (r *mongoCustomerRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailUniqueIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "nationalId", Value: 1}},
			Options: options.Index().SetName(nationalIDUniqueIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName(createdAtIndex),
		},
	})
	return err
}

func (r *mongoCustomerRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *mongoCustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	if c.Documents == nil {
		c.Documents = make([]model.Document, 0)
	}

	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		return r.translate(err)
	}
	return nil
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoCustomerRepository) FindByNationalID(ctx context.Context, nationalID string) (*model.Customer, error) {
	return r.findOne(ctx, bson.M{"nationalId": nationalID})
}

func (r *mongoCustomerRepository) FindByEmailOrNationalID(ctx context.Context, email string, nationalID string) ([]*model.Customer, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"nationalId": nationalID},
	}}

	cur, err := r.collection.Find(ctx, filter, options.Find().SetLimit(2).SetProjection(bson.M{"documents": 0}))
	if err != nil {
		return nil, err
	}

	customers := make([]*model.Customer, 0)
	if err := cur.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *mongoCustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	filter := bson.M{"email": email}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *mongoCustomerRepository) Update(ctx context.Context, id string, patch *model.CustomerPatch) (*model.Customer, error) {
	set := patchSet(patch)
	set["updatedAt"] = now()

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *mongoCustomerRepository) AppendDocument(ctx context.Context, id string, doc model.Document) (*model.Customer, error) {
	update := bson.M{
		"$push": bson.M{"documents": doc},
		"$set":  bson.M{"updatedAt": now()},
		"$inc":  bson.M{"version": 1},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *mongoCustomerRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	update := bson.M{
		"$set": bson.M{"status": model.StatusInactive, "updatedAt": now()},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoCustomerRepository) UpdateCompliance(ctx context.Context, id string, outcome model.ComplianceOutcome) error {
	set := bson.M{
		"complianceStatus":    outcome.Status,
		"lastComplianceCheck": outcome.CheckedAt,
		"updatedAt":           now(),
	}

	if outcome.Notes != nil {
		set["complianceNotes"] = *outcome.Notes
	}

	if outcome.RiskScore != nil {
		set["riskScore"] = *outcome.RiskScore
	}

	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": set, "$inc": bson.M{"version": 1}})
	return err
}

func (r *mongoCustomerRepository) Search(ctx context.Context, f model.SearchFilter) ([]*model.Customer, int64, error) {
	filter := searchFilter(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(f.Skip()).
		SetLimit(int64(f.Limit)).
		SetProjection(bson.M{"documents": 0, "version": 0})

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	customers := make([]*model.Customer, 0, f.Limit)
	if err := cur.All(ctx, &customers); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *mongoCustomerRepository) findOne(ctx context.Context, filter bson.M) (*model.Customer, error) {
	var c model.Customer
	if err := r.collection.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *mongoCustomerRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*model.Customer, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c model.Customer
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, r.translate(err)
	}
	return &c, nil
}

func (r *mongoCustomerRepository) translate(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	index := emailUniqueIndex
	if msg := err.Error(); !strings.Contains(msg, emailUniqueIndex) && strings.Contains(msg, nationalIDUniqueIndex) {
		index = nationalIDUniqueIndex
	}
	return &DuplicateKeyErr{Field: duplicateField(index), cause: err}
}

func searchFilter(f model.SearchFilter) bson.M {
	filter := bson.M{}

	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"firstName": pattern},
			bson.M{"lastName": pattern},
			bson.M{"email": pattern},
			bson.M{"nationalId": pattern},
		}
	}

	if f.Status != "" {
		filter["status"] = f.Status
	}

	if f.ComplianceStatus != "" {
		filter["complianceStatus"] = f.ComplianceStatus
	}

	if f.Country != "" {
		filter["address.country"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Country), Options: "i"}
	}
	return filter
}

func patchSet(p *model.CustomerPatch) bson.M {
	set := bson.M{}
	setIfPresent(set, "firstName", p.FirstName)
	setIfPresent(set, "lastName", p.LastName)
	setIfPresent(set, "email", p.Email)
	setIfPresent(set, "phone", p.Phone)
	setIfPresent(set, "passportNumber", p.PassportNumber)

	if a := p.Address; a != nil {
		setIfPresent(set, "address.street", a.Street)
		setIfPresent(set, "address.city", a.City)
		setIfPresent(set, "address.state", a.State)
		setIfPresent(set, "address.postalCode", a.PostalCode)
		setIfPresent(set, "address.country", a.Country)
	}

	if pr := p.Preferences; pr != nil {
		if pr.Language != nil {
			set["preferences.language"] = *pr.Language
		}
		if pr.Currency != nil {
			set["preferences.currency"] = *pr.Currency
		}
		if n := pr.Notifications; n != nil {
			setIfPresent(set, "preferences.notifications.email", n.Email)
			setIfPresent(set, "preferences.notifications.sms", n.SMS)
			setIfPresent(set, "preferences.notifications.push", n.Push)
		}
		setIfPresent(set, "preferences.marketingConsent", pr.MarketingConsent)
	}
	return set
}

func setIfPresent[T any](set bson.M, key string, v *T) {
	if v != nil {
		set[key] = *v
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

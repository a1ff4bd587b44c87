package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourusername/himitsu/internal/account"
)

// accountDocument は users コレクションのドキュメント形式です。
type accountDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Kind      string             `bson:"kind"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password,omitempty"`
	Provider  string             `bson:"provider,omitempty"`
	GoogleID  string             `bson:"googleId,omitempty"`
	Secret    *string            `bson:"secret"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// Mongo は MongoDB に保存するアカウントストアです。
type Mongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongo はコレクションを受け取って Mongo を作成します。
func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{
		coll: coll,
		now:  time.Now,
	}
}

// Connect は URI に接続し、ping が通った Client を返します。
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes はユーザー名とサブジェクトIDの一意制約を作成します。
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("uniq_local_username").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "kind", Value: string(account.KindLocal)}}),
		},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "googleId", Value: 1}},
			Options: options.Index().
				SetName("uniq_oauth_subject").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "kind", Value: string(account.KindOAuth)}}),
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Create はアカウントを挿入します。
func (s *Mongo) Create(ctx context.Context, a *account.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	doc := toDocument(a)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if a.Credential.Kind() == account.KindOAuth {
				return account.ErrDuplicateSubject
			}
			return account.ErrUsernameTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}

	a.ID = doc.ID.Hex()
	a.CreatedAt = doc.CreatedAt
	return nil
}

// FindByID は ID でアカウントを取得します。
func (s *Mongo) FindByID(ctx context.Context, id string) (*account.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, account.ErrNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// FindLocalByUsername はローカルアカウントをユーザー名で取得します。
func (s *Mongo) FindLocalByUsername(ctx context.Context, username string) (*account.Account, error) {
	return s.findOne(ctx, bson.D{
		{Key: "kind", Value: string(account.KindLocal)},
		{Key: "username", Value: username},
	})
}

// FindByOAuthSubject はプロバイダーのサブジェクトIDでアカウントを取得します。
func (s *Mongo) FindByOAuthSubject(ctx context.Context, provider, subjectID string) (*account.Account, error) {
	return s.findOne(ctx, bson.D{
		{Key: "kind", Value: string(account.KindOAuth)},
		{Key: "provider", Value: provider},
		{Key: "googleId", Value: subjectID},
	})
}

// UpdateSecret はシークレットを上書きします。
func (s *Mongo) UpdateSecret(ctx context.Context, id, secret string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return account.ErrNotFound
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "secret", Value: secret}}}},
	)
	if err != nil {
		return fmt.Errorf("update secret: %w", err)
	}
	if res.MatchedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

// ListWithSecrets は secret が null でないアカウントを作成順に返します。
func (s *Mongo) ListWithSecrets(ctx context.Context) ([]*account.Account, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "secret", Value: bson.D{{Key: "$ne", Value: nil}}}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find secrets: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode secrets: %w", err)
	}

	out := make([]*account.Account, 0, len(docs))
	for i := range docs {
		a, err := fromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Mongo) findOne(ctx context.Context, filter bson.D) (*account.Account, error) {
	var doc accountDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return fromDocument(&doc)
}

func toDocument(a *account.Account) *accountDocument {
	doc := &accountDocument{
		Kind:      string(a.Credential.Kind()),
		Username:  a.Username,
		Secret:    a.Secret,
		CreatedAt: a.CreatedAt,
	}
	switch c := a.Credential.(type) {
	case account.LocalCredential:
		doc.Password = c.PasswordHash
	case account.OAuthCredential:
		doc.Provider = c.Provider
		doc.GoogleID = c.SubjectID
	}
	return doc
}

// fromDocument はドキュメントをタグ付きのアカウントへ変換します。
// kind が無い古いドキュメントは password / googleId の有無から判定します。
func fromDocument(doc *accountDocument) (*account.Account, error) {
	kind := account.Kind(doc.Kind)
	if kind == "" {
		switch {
		case doc.Password != "" && doc.GoogleID == "":
			kind = account.KindLocal
		case doc.GoogleID != "" && doc.Password == "":
			kind = account.KindOAuth
		}
	}

	a := &account.Account{
		ID:        doc.ID.Hex(),
		Username:  doc.Username,
		Secret:    doc.Secret,
		CreatedAt: doc.CreatedAt,
	}
	switch kind {
	case account.KindLocal:
		a.Credential = account.LocalCredential{PasswordHash: doc.Password}
	case account.KindOAuth:
		provider := strings.TrimSpace(doc.Provider)
		if provider == "" {
			provider = account.ProviderGoogle
		}
		a.Credential = account.OAuthCredential{Provider: provider, SubjectID: doc.GoogleID}
	default:
		return nil, fmt.Errorf("%w: id=%s", account.ErrCorrupt, a.ID)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: id=%s: %v", account.ErrCorrupt, a.ID, err)
	}
	return a, nil
}

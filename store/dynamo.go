package store

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

// Dynamo stores one item per language, keyed by the language code.
type Dynamo struct {
	svc   *dynamodb.DynamoDB
	db    *dynamo.DB
	table dynamo.Table
}

type dynamoItem struct {
	Language  string    `dynamo:"language,hash"`
	ID        string    `dynamo:"id"`
	Content   string    `dynamo:"content"`
	CreatedAt time.Time `dynamo:"createdAt"`
	UpdatedAt time.Time `dynamo:"updatedAt"`
}

// OpenDynamo creates a DynamoDB store. An empty endpoint uses the AWS
// default for the region.
func OpenDynamo(region, endpoint, table string) (*Dynamo, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, wrapUnavailable("aws session", err)
	}
	return NewDynamo(sess, table), nil
}

// NewDynamo creates a store on an existing session.
func NewDynamo(sess *session.Session, table string) *Dynamo {
	if table == "" {
		table = DefaultTable
	}
	d := &Dynamo{svc: dynamodb.New(sess)}
	d.db = dynamo.NewFromIface(d.svc)
	d.table = d.db.Table(table)
	return d
}

// Get implements Store.
func (d *Dynamo) Get(ctx context.Context, lang string) (*Record, error) {
	var it dynamoItem
	err := d.table.Get("language", lang).OneWithContext(ctx, &it)
	if err != nil {
		if xerrors.Is(err, dynamo.ErrNotFound) {
			return nil, xerrors.Errorf("language %q: %w", lang, ErrNotFound)
		}
		return nil, wrapUnavailable("get "+lang, err)
	}

	doc, err := decodeDocument([]byte(it.Content))
	if err != nil {
		return nil, wrapUnavailable("get "+lang, err)
	}
	return &Record{
		ID:        it.ID,
		Language:  it.Language,
		Document:  doc,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}, nil
}

// Put implements Store.
func (d *Dynamo) Put(ctx context.Context, lang string, doc *tree.Map) error {
	content, err := tree.MarshalPairs(doc)
	if err != nil {
		return xerrors.Errorf("encoding document for %s: %w", lang, err)
	}
	now := time.Now().UTC()

	err = d.table.Update("language", lang).
		Set("content", string(content)).
		Set("updatedAt", now).
		If("attribute_exists($)", "language").
		RunWithContext(ctx)
	if err == nil {
		return nil
	}
	if !isConditionFailed(err) {
		return wrapUnavailable("update "+lang, err)
	}

	it := dynamoItem{Language: lang, ID: NewID(), Content: string(content), CreatedAt: now, UpdatedAt: now}
	err = d.table.Put(it).If("attribute_not_exists($)", "language").RunWithContext(ctx)
	if err == nil {
		log.Debugw("created record", "lang", lang)
		return nil
	}
	if !isConditionFailed(err) {
		return wrapUnavailable("put "+lang, err)
	}

	log.Debugw("concurrent insert, updating instead", "lang", lang)
	err = d.table.Update("language", lang).
		Set("content", string(content)).
		Set("updatedAt", now).
		RunWithContext(ctx)
	return wrapUnavailable("update "+lang, err)
}

func isConditionFailed(err error) bool {
	var aerr awserr.Error
	return xerrors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}

// Languages implements Store.
func (d *Dynamo) Languages(ctx context.Context) ([]string, error) {
	iter := d.table.Scan().Project("language").Iter()

	var langs []string
	for {
		var it dynamoItem
		if !iter.NextWithContext(ctx, &it) {
			if err := iter.Err(); err != nil {
				return nil, wrapUnavailable("list languages", err)
			}
			break
		}
		langs = append(langs, it.Language)
	}
	sort.Strings(langs)
	return langs, nil
}

// Close implements Store.
func (d *Dynamo) Close() error { return nil }

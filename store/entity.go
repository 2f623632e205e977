package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/ssrf"
)

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

// API is the subset of the DynamoDB client used by Store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Item is a retrieved document with its bookkeeping fields.
type Item struct {
	// Raw is the raw DynamoDB item.
	Raw map[string]types.AttributeValue

	// ID is the document ID.
	ID string

	// EntityRef is the type-qualified document reference (e.g., "document#uuid").
	EntityRef string

	// Version is the optimistic lock version.
	Version int64

	// CreatedAt is the ISO 8601 creation timestamp.
	CreatedAt string

	// UpdatedAt is the ISO 8601 last update timestamp.
	UpdatedAt string

	// Complete records whether every dataset was complete when last written.
	Complete bool

	// Class is the highest dataset classification when last written.
	Class cell.Classification

	// Serials are the dataset serials the document holds.
	Serials []ssrf.Serial

	// Refs are the serials the document refers to.
	Refs []ssrf.Serial

	// Document is the decoded, hydrated document.
	Document *ssrf.Document

	// Report is the outcome of hydrating Document.
	Report ssrf.Report
}

// Referrer is a reference index entry: a document referring to a serial.
type Referrer struct {
	// Ref is the referring document's entity reference.
	Ref string

	// Serial is the serial referred to.
	Serial ssrf.Serial

	// TableName is the DynamoDB table containing the referring document.
	TableName string

	// Key is the primary key to locate the referring document.
	Key PK

	// ShardPK is the reference table partition key (for TTL updates).
	ShardPK string
}

// documentRecord is the stored layout of a document item.
type documentRecord struct {
	ID        string   `dynamodbav:"id"`
	EntityRef string   `dynamodbav:"entity_ref"`
	Version   int64    `dynamodbav:"version"`
	CreatedAt string   `dynamodbav:"created_at"`
	UpdatedAt string   `dynamodbav:"updated_at"`
	Complete  bool     `dynamodbav:"complete"`
	Class     string   `dynamodbav:"cls,omitempty"`
	Serials   []string `dynamodbav:"serials,omitempty"`
	Refs      []string `dynamodbav:"refs,omitempty"`
	Body      []byte   `dynamodbav:"body"`
	UniquePKs []string `dynamodbav:"_unique_pks,omitempty"`
	RefPKs    []string `dynamodbav:"_ref_pks,omitempty"`
	TTL       int64    `dynamodbav:"ttl,omitempty"`
}

// referenceRecord is the stored layout of a reference index item.
type referenceRecord struct {
	PK           string `dynamodbav:"pk"`
	SourceRef    string `dynamodbav:"source_ref"`
	SourceID     string `dynamodbav:"source_id"`
	SourceTable  string `dynamodbav:"source_table"`
	TargetSerial string `dynamodbav:"target_serial"`
	TTL          int64  `dynamodbav:"ttl,omitempty"`
}

// uniqueRecord is the stored layout of a serial constraint item.
type uniqueRecord struct {
	PK         string `dynamodbav:"pk"`
	SK         string `dynamodbav:"sk"`
	Scope      string `dynamodbav:"scope"`
	EntityType string `dynamodbav:"entity_type"`
	FieldName  string `dynamodbav:"field_name"`
	FieldValue string `dynamodbav:"field_value"`
	EntityRef  string `dynamodbav:"entity_ref"`
}

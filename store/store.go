package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/codec"
	"github.com/jacentio/ssrf/internal/shard"
	"github.com/jacentio/ssrf/ssrf"
)

const (
	// maxTransactItems is the DynamoDB limit on items per transaction.
	maxTransactItems = 100

	constraintSK    = "CONSTRAINT"
	constraintScope = "ssrf"
)

// Store persists SSRF documents in DynamoDB with a reference index and
// document-spanning serial uniqueness.
type Store struct {
	client API
	config Config
	codec  *codec.Codec
}

// New creates a new Store instance using the default codec.
func New(client API, config Config) *Store {
	return NewWithCodec(client, config, nil)
}

// NewWithCodec creates a new Store instance that encodes documents with c.
// A nil codec uses codec.DefaultOptions and the default linker.
func NewWithCodec(client API, config Config, c *codec.Codec) *Store {
	config.validate()
	if c == nil {
		c = codec.New(nil, codec.DefaultOptions())
	}
	return &Store{
		client: client,
		config: config,
		codec:  c,
	}
}

// SetCodec sets the codec used to encode and decode documents.
func (s *Store) SetCodec(c *codec.Codec) {
	s.codec = c
}

// Codec returns the codec used to encode and decode documents.
func (s *Store) Codec() *codec.Codec {
	return s.codec
}

// Config returns the validated store configuration.
func (s *Store) Config() Config {
	return s.config
}

// NewID returns a fresh document ID.
func NewID() string {
	return uuid.NewString()
}

// DocumentRef returns the type-qualified reference of document id.
func DocumentRef(id string) string {
	return "document#" + id
}

// SerialRef returns the reference index target for serial.
func SerialRef(serial ssrf.Serial) string {
	return "serial#" + string(serial)
}

func documentKey(id string) PK {
	return PK{"id": &types.AttributeValueMemberS{Value: id}}
}

// referencePK computes the sharded partition key for a reference record.
func (s *Store) referencePK(serial ssrf.Serial, sourceRef string) string {
	return shard.ReferencePK(SerialRef(serial), sourceRef, s.config.NumShards)
}

// uniquePK computes the constraint partition key for serial.
func uniquePK(serial ssrf.Serial) string {
	return shard.UniqueConstraintPK(constraintScope, "dataset", "serial", string(serial))
}

// encoded is a document prepared for writing.
type encoded struct {
	body     []byte
	serials  []ssrf.Serial
	refs     []ssrf.Serial
	class    cell.Classification
	complete bool
}

// encode flattens and serializes doc and collects its index keys.
func (s *Store) encode(doc *ssrf.Document) (*encoded, error) {
	body, err := s.codec.MarshalCBOR(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	var serials []ssrf.Serial
	for _, serial := range doc.Serials() {
		if serial == "" {
			continue
		}
		if slices.Contains(serials, serial) {
			return nil, fmt.Errorf("%w: %s repeated within document", ErrDuplicateValue, serial)
		}
		serials = append(serials, serial)
	}
	slices.Sort(serials)

	// References between datasets of the same document are not indexed.
	refs := slices.DeleteFunc(doc.ReferencedSerials(), func(serial ssrf.Serial) bool {
		_, held := slices.BinarySearch(serials, serial)
		return held
	})

	return &encoded{
		body:     body,
		serials:  serials,
		refs:     refs,
		class:    doc.Classification(),
		complete: doc.IsSet(),
	}, nil
}

func (s *Store) uniquePut(id string, serial ssrf.Serial, now int64) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(uniqueRecord{
		PK:         uniquePK(serial),
		SK:         constraintSK,
		Scope:      constraintScope,
		EntityType: "dataset",
		FieldName:  "serial",
		FieldValue: string(serial),
		EntityRef:  DocumentRef(id),
	})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal constraint: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:                 aws.String(s.config.UniqueTable),
			Item:                      item,
			ConditionExpression:       aws.String(ConstraintFreeCondition()),
			ExpressionAttributeNames:  TTLFilterNames(),
			ExpressionAttributeValues: nowValue(now),
		},
	}, nil
}

func (s *Store) uniqueDelete(serial ssrf.Serial) types.TransactWriteItem {
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(s.config.UniqueTable),
			Key: map[string]types.AttributeValue{
				"pk": &types.AttributeValueMemberS{Value: uniquePK(serial)},
				"sk": &types.AttributeValueMemberS{Value: constraintSK},
			},
		},
	}
}

func (s *Store) referencePut(id string, serial ssrf.Serial) (types.TransactWriteItem, error) {
	sourceRef := DocumentRef(id)
	item, err := attributevalue.MarshalMap(referenceRecord{
		PK:           s.referencePK(serial, sourceRef),
		SourceRef:    sourceRef,
		SourceID:     id,
		SourceTable:  s.config.DocumentTable,
		TargetSerial: string(serial),
	})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal reference: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.config.ReferenceTable),
			Item:      item,
		},
	}, nil
}

func (s *Store) referenceDelete(id string, serial ssrf.Serial) types.TransactWriteItem {
	sourceRef := DocumentRef(id)
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(s.config.ReferenceTable),
			Key: map[string]types.AttributeValue{
				"pk":         &types.AttributeValueMemberS{Value: s.referencePK(serial, sourceRef)},
				"source_ref": &types.AttributeValueMemberS{Value: sourceRef},
			},
		},
	}
}

func (s *Store) uniquePKs(serials []ssrf.Serial) []string {
	pks := make([]string, len(serials))
	for i, serial := range serials {
		pks[i] = uniquePK(serial)
	}
	return pks
}

func (s *Store) referencePKs(id string, refs []ssrf.Serial) []string {
	pks := make([]string, len(refs))
	for i, serial := range refs {
		pks[i] = s.referencePK(serial, DocumentRef(id))
	}
	return pks
}

// Put stores doc under a new ID. In one transaction it writes the document,
// claims every dataset serial in the unique constraint table, and indexes
// every serial the document refers to.
func (s *Store) Put(ctx context.Context, id string, doc *ssrf.Document) error {
	enc, err := s.encode(doc)
	if err != nil {
		return err
	}
	if n := len(enc.serials) + len(enc.refs) + 1; n > maxTransactItems {
		return fmt.Errorf("%w: %d items", ErrTooLarge, n)
	}

	now := time.Now()
	nowISO := now.UTC().Format(time.RFC3339)

	// Track item indices for error mapping
	items := []types.TransactWriteItem{}
	constraintIndex := make(map[int]ssrf.Serial)

	// 1. Claim serials
	for _, serial := range enc.serials {
		put, err := s.uniquePut(id, serial, now.Unix())
		if err != nil {
			return err
		}
		constraintIndex[len(items)] = serial
		items = append(items, put)
	}

	// 2. Document
	item, err := attributevalue.MarshalMap(documentRecord{
		ID:        id,
		EntityRef: DocumentRef(id),
		Version:   1,
		CreatedAt: nowISO,
		UpdatedAt: nowISO,
		Complete:  enc.complete,
		Class:     enc.class.String(),
		Serials:   serialStrings(enc.serials),
		Refs:      serialStrings(enc.refs),
		Body:      enc.body,
		UniquePKs: s.uniquePKs(enc.serials),
		RefPKs:    s.referencePKs(id, enc.refs),
	})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	documentIndex := len(items)
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(s.config.DocumentTable),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		},
	})

	// 3. Reference index
	for _, serial := range enc.refs {
		put, err := s.referencePut(id, serial)
		if err != nil {
			return err
		}
		items = append(items, put)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return s.mapTransactionError(err, documentIndex, ErrAlreadyExists, constraintIndex)
}

// Get retrieves and hydrates a document, returning ErrNotFound if deleted or missing.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	raw, err := s.getRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw == nil || IsDeleted(raw) {
		return nil, ErrNotFound
	}

	item, rec, err := s.unmarshalItem(raw)
	if err != nil {
		return nil, err
	}
	item.Document, item.Report, err = s.codec.UnmarshalCBOR(rec.Body)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return item, nil
}

func (s *Store) getRaw(ctx context.Context, id string) (map[string]types.AttributeValue, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.DocumentTable),
		Key:       documentKey(id),
	})
	if err != nil {
		return nil, err
	}
	return result.Item, nil
}

// Update replaces a document with optimistic locking.
// If its serials or references changed, stale constraint and index records
// are deleted and new ones created transactionally; otherwise only the
// document item is written.
func (s *Store) Update(ctx context.Context, id string, doc *ssrf.Document, expectedVersion int64) error {
	enc, err := s.encode(doc)
	if err != nil {
		return err
	}

	raw, err := s.getRaw(ctx, id)
	if err != nil {
		return err
	}
	if raw == nil || IsDeleted(raw) {
		return ErrNotFound
	}
	_, current, err := s.unmarshalItem(raw)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return ErrConcurrentModification
	}

	addSerials, removeSerials := diffSerials(toSerials(current.Serials), enc.serials)
	addRefs, removeRefs := diffSerials(toSerials(current.Refs), enc.refs)

	update := s.documentUpdate(id, enc, expectedVersion)

	// Fast path: no index changes
	if len(addSerials)+len(removeSerials)+len(addRefs)+len(removeRefs) == 0 {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 update.TableName,
			Key:                       update.Key,
			UpdateExpression:          update.UpdateExpression,
			ConditionExpression:       update.ConditionExpression,
			ExpressionAttributeNames:  update.ExpressionAttributeNames,
			ExpressionAttributeValues: update.ExpressionAttributeValues,
		})
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return err
	}

	n := len(addSerials) + len(removeSerials) + len(addRefs) + len(removeRefs) + 1
	if n > maxTransactItems {
		return fmt.Errorf("%w: %d items", ErrTooLarge, n)
	}

	now := time.Now().Unix()
	items := []types.TransactWriteItem{}
	constraintIndex := make(map[int]ssrf.Serial)

	for _, serial := range removeSerials {
		items = append(items, s.uniqueDelete(serial))
	}
	for _, serial := range addSerials {
		put, err := s.uniquePut(id, serial, now)
		if err != nil {
			return err
		}
		constraintIndex[len(items)] = serial
		items = append(items, put)
	}
	for _, serial := range removeRefs {
		items = append(items, s.referenceDelete(id, serial))
	}
	for _, serial := range addRefs {
		put, err := s.referencePut(id, serial)
		if err != nil {
			return err
		}
		items = append(items, put)
	}

	documentIndex := len(items)
	items = append(items, types.TransactWriteItem{Update: update})

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return s.mapTransactionError(err, documentIndex, ErrConcurrentModification, constraintIndex)
}

// documentUpdate builds the versioned update of a document item.
func (s *Store) documentUpdate(id string, enc *encoded, expectedVersion int64) *types.Update {
	now := time.Now().UTC().Format(time.RFC3339)

	set := []struct {
		name  string
		value types.AttributeValue
	}{
		{"body", &types.AttributeValueMemberB{Value: enc.body}},
		{"cls", &types.AttributeValueMemberS{Value: enc.class.String()}},
		{"complete", &types.AttributeValueMemberBOOL{Value: enc.complete}},
		{"serials", stringList(serialStrings(enc.serials))},
		{"refs", stringList(serialStrings(enc.refs))},
		{"_unique_pks", stringList(s.uniquePKs(enc.serials))},
		{"_ref_pks", stringList(s.referencePKs(id, enc.refs))},
		{"updated_at", &types.AttributeValueMemberS{Value: now}},
	}

	var setClauses []string
	exprNames := map[string]string{
		"#version": "version",
		"#ttl":     "ttl",
	}
	exprValues := map[string]types.AttributeValue{
		":one":              &types.AttributeValueMemberN{Value: "1"},
		":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
	}
	for i, attr := range set {
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = attr.name
		exprValues[valueKey] = attr.value
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	setClauses = append(setClauses, "#version = #version + :one")

	return &types.Update{
		TableName:                 aws.String(s.config.DocumentTable),
		Key:                       documentKey(id),
		UpdateExpression:          aws.String("SET " + strings.Join(setClauses, ", ")),
		ConditionExpression:       aws.String("#version = :expected_version AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}
}

// DeleteOptions configures delete behavior.
type DeleteOptions struct {
	// OrphanProtect fails the delete if another active document refers to
	// one of this document's serials.
	OrphanProtect bool
}

// Delete deletes a document by setting its TTL. References are weak:
// referring documents are left alone and drop the dangling identifiers at
// their next hydrate.
func (s *Store) Delete(ctx context.Context, id string, opts DeleteOptions) error {
	raw, err := s.getRaw(ctx, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	if IsDeleted(raw) {
		return ErrAlreadyDeleted
	}

	if opts.OrphanProtect {
		_, rec, err := s.unmarshalItem(raw)
		if err != nil {
			return err
		}
		self := DocumentRef(id)
		for _, serial := range rec.Serials {
			referenced, err := s.HasReferrers(ctx, ssrf.Serial(serial), self)
			if err != nil {
				return err
			}
			if referenced {
				return fmt.Errorf("%w: serial %s", ErrReferenced, serial)
			}
		}
	}

	return s.SetTTL(ctx, id)
}

// SetTTL marks a document for deletion by setting its TTL to now.
// This also increments the version to fail concurrent updates.
func (s *Store) SetTTL(ctx context.Context, id string) error {
	return s.SetTTLByKey(ctx, s.config.DocumentTable, documentKey(id), time.Now().Unix())
}

// HasReferrers checks whether any active document other than excludeRef
// refers to serial.
func (s *Store) HasReferrers(ctx context.Context, serial ssrf.Serial, excludeRef string) (bool, error) {
	numShards := s.config.NumShards

	// Fast path for single shard (default)
	if numShards == 1 {
		return s.hasReferrersInShard(ctx, shard.PK(SerialRef(serial), 0), excludeRef)
	}

	// Multi-shard fan-out with early cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan bool, 1)
	errs := make(chan error, numShards)
	var wg sync.WaitGroup

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			default:
			}

			ok, err := s.hasReferrersInShard(ctx, shard.PK(SerialRef(serial), shardNum), excludeRef)
			if err != nil {
				errs <- err
				return
			}
			if ok {
				select {
				case found <- true:
					cancel()
				default:
				}
			}
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(found)
		close(errs)
	}()

	select {
	case ok := <-found:
		if ok {
			return true, nil
		}
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			return false, err
		}
	}

	for err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return false, err
		}
	}
	for ok := range found {
		if ok {
			return true, nil
		}
	}

	return false, nil
}

// hasReferrersInShard pages through one shard until an active referrer is found.
// A filtered page may be empty while more pages remain.
func (s *Store) hasReferrersInShard(ctx context.Context, shardPK, excludeRef string) (bool, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                aws.String(s.config.ReferenceTable),
		KeyConditionExpression:   aws.String("pk = :pk"),
		FilterExpression:         aws.String(fmt.Sprintf("source_ref <> :self AND (%s)", TTLFilterExpr())),
		ExpressionAttributeNames: TTLFilterNames(),
		ExpressionAttributeValues: mergeExprValues(TTLFilterValues(), map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: shardPK},
			":self": &types.AttributeValueMemberS{Value: excludeRef},
		}),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return false, err
		}
		if len(page.Items) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// QueryReferrers returns every active document referring to serial.
func (s *Store) QueryReferrers(ctx context.Context, serial ssrf.Serial) ([]Referrer, error) {
	numShards := s.config.NumShards

	// Fast path for single shard (default)
	if numShards == 1 {
		return s.queryShard(ctx, shard.PK(SerialRef(serial), 0))
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	var all []Referrer
	var wg sync.WaitGroup
	errs := make(chan error, numShards)

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			refs, err := s.queryShard(ctx, shard.PK(SerialRef(serial), shardNum))
			if err != nil {
				errs <- fmt.Errorf("shard %02x: %w", shardNum, err)
				return
			}

			mu.Lock()
			all = append(all, refs...)
			mu.Unlock()
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	slices.SortFunc(all, func(a, b Referrer) int {
		return strings.Compare(a.Ref, b.Ref)
	})
	return all, nil
}

func (s *Store) queryShard(ctx context.Context, shardPK string) ([]Referrer, error) {
	var refs []Referrer

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                aws.String(s.config.ReferenceTable),
		KeyConditionExpression:   aws.String("pk = :pk"),
		FilterExpression:         aws.String(TTLFilterExpr()),
		ExpressionAttributeNames: TTLFilterNames(),
		ExpressionAttributeValues: mergeExprValues(TTLFilterValues(), map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shardPK},
		}),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			ref, err := unmarshalReferrer(item)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
	}

	return refs, nil
}

// SetTTLByKey sets TTL on an item by table and key, incrementing its version.
func (s *Store) SetTTLByKey(ctx context.Context, table string, key PK, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 key,
		UpdateExpression:    aws.String("SET #ttl = :ttl, #version = #version + :one"),
		ConditionExpression: aws.String("attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl":     "ttl",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(ttl, 10),
			},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})

	// Ignore condition failure - already has TTL
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}

// SetReferenceTTL sets TTL on a reference index record.
func (s *Store) SetReferenceTTL(ctx context.Context, shardPK, sourceRef string, ttl int64) error {
	return s.setRecordTTL(ctx, s.config.ReferenceTable, map[string]types.AttributeValue{
		"pk":         &types.AttributeValueMemberS{Value: shardPK},
		"source_ref": &types.AttributeValueMemberS{Value: sourceRef},
	}, ttl)
}

// SetUniqueConstraintTTL sets TTL on a unique constraint record.
func (s *Store) SetUniqueConstraintTTL(ctx context.Context, pk string, ttl int64) error {
	return s.setRecordTTL(ctx, s.config.UniqueTable, map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: constraintSK},
	}, ttl)
}

// setRecordTTL sets TTL on an index record that exists and has none yet.
func (s *Store) setRecordTTL(ctx context.Context, table string, key PK, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 key,
		UpdateExpression:    aws.String("SET #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_exists(pk) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(ttl, 10),
			},
		},
	})

	// Ignore condition failure - already has TTL or already gone
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}

// mapTransactionError maps DynamoDB transaction errors for Put and Update.
// A failed condition on the document item maps to documentErr; on a
// constraint item, to ErrDuplicateValue naming the serial.
func (s *Store) mapTransactionError(err error, documentIndex int, documentErr error, constraintIndex map[int]ssrf.Serial) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			if i == documentIndex {
				return documentErr
			}
			if serial, ok := constraintIndex[i]; ok {
				return fmt.Errorf("%w: %s", ErrDuplicateValue, serial)
			}
			return ErrDuplicateValue
		}
	}

	return err
}

// unmarshalItem converts a DynamoDB document item to an Item and its stored record.
func (s *Store) unmarshalItem(raw map[string]types.AttributeValue) (*Item, *documentRecord, error) {
	var rec documentRecord
	if err := attributevalue.UnmarshalMap(raw, &rec); err != nil {
		return nil, nil, fmt.Errorf("unmarshal document: %w", err)
	}

	class, err := cell.ParseClassification(rec.Class)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal document %s: %w", rec.ID, err)
	}

	return &Item{
		Raw:       raw,
		ID:        rec.ID,
		EntityRef: rec.EntityRef,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Complete:  rec.Complete,
		Class:     class,
		Serials:   toSerials(rec.Serials),
		Refs:      toSerials(rec.Refs),
	}, &rec, nil
}

// unmarshalReferrer converts a reference index item to a Referrer.
func unmarshalReferrer(item map[string]types.AttributeValue) (Referrer, error) {
	var rec referenceRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return Referrer{}, fmt.Errorf("unmarshal reference: %w", err)
	}
	return Referrer{
		Ref:       rec.SourceRef,
		Serial:    ssrf.Serial(rec.TargetSerial),
		TableName: rec.SourceTable,
		Key:       documentKey(rec.SourceID),
		ShardPK:   rec.PK,
	}, nil
}

// diffSerials returns the members of next missing from prev, and of prev missing from next.
func diffSerials(prev, next []ssrf.Serial) (added, removed []ssrf.Serial) {
	for _, s := range next {
		if !slices.Contains(prev, s) {
			added = append(added, s)
		}
	}
	for _, s := range prev {
		if !slices.Contains(next, s) {
			removed = append(removed, s)
		}
	}
	return added, removed
}

func serialStrings(serials []ssrf.Serial) []string {
	out := make([]string, len(serials))
	for i, s := range serials {
		out[i] = string(s)
	}
	return out
}

func toSerials(strs []string) []ssrf.Serial {
	out := make([]ssrf.Serial, len(strs))
	for i, s := range strs {
		out[i] = ssrf.Serial(s)
	}
	return out
}

func stringList(strs []string) types.AttributeValue {
	list := make([]types.AttributeValue, len(strs))
	for i, v := range strs {
		list[i] = &types.AttributeValueMemberS{Value: v}
	}
	return &types.AttributeValueMemberL{Value: list}
}

func nowValue(now int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
	}
}

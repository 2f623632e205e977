// Package stream provides the DynamoDB Streams handler that completes
// document deletes.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ssrf/ssrf"
	"github.com/jacentio/ssrf/store"
)

// Handler processes document table stream events.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleDocumentDelete processes DynamoDB stream events for documents marked
// for deletion. It expires the document's reference index and unique
// constraint records, and reports referrers left with dangling identifiers.
// Referring documents are not modified.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleDocumentDelete(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// deletion is what a stream record says about a document marked for deletion.
type deletion struct {
	entityRef string
	ttl       int64
	serials   []string
	refPKs    []string
	uniquePKs []string
}

// parseDeletion reports whether record is a MODIFY that newly set the TTL
// of a document, and extracts what the cleanup needs.
func parseDeletion(record events.DynamoDBEventRecord) (deletion, bool) {
	if record.EventName != "MODIFY" {
		return deletion{}, false
	}

	prev, next := image(record.Change.OldImage), image(record.Change.NewImage)
	if prev.num("ttl") != 0 || next.num("ttl") == 0 {
		return deletion{}, false
	}

	d := deletion{
		entityRef: next.str("entity_ref"),
		ttl:       next.num("ttl"),
		serials:   next.list("serials"),
		refPKs:    next.list("_ref_pks"),
		uniquePKs: next.list("_unique_pks"),
	}
	if d.entityRef == "" {
		if id, ok := ConvertStreamKey(record.Change.Keys)["id"].(*types.AttributeValueMemberS); ok {
			d.entityRef = store.DocumentRef(id.Value)
		}
	}
	return d, true
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	d, ok := parseDeletion(record)
	if !ok {
		return nil
	}

	h.logger.Info("processing document delete",
		"entityRef", d.entityRef,
		"ttl", d.ttl,
	)

	// Failures on index records are logged and skipped; a retry repeats them.
	for _, pk := range d.refPKs {
		if err := h.store.SetReferenceTTL(ctx, pk, d.entityRef, d.ttl); err != nil {
			h.logger.Warn("failed to set reference TTL",
				"pk", pk,
				"entity", d.entityRef,
				"error", err,
			)
		}
	}
	for _, pk := range d.uniquePKs {
		if err := h.store.SetUniqueConstraintTTL(ctx, pk, d.ttl); err != nil {
			h.logger.Warn("failed to set unique constraint TTL",
				"pk", pk,
				"error", err,
			)
		}
	}

	dangling := 0
	for _, serial := range d.serials {
		referrers, err := h.store.QueryReferrers(ctx, ssrf.Serial(serial))
		if err != nil {
			return fmt.Errorf("query referrers of %s: %w", serial, err)
		}
		for _, ref := range referrers {
			if ref.Ref == d.entityRef {
				continue
			}
			dangling++
			h.logger.Warn("reference left dangling",
				"serial", serial,
				"deleted", d.entityRef,
				"referrer", ref.Ref,
			)
		}
	}

	h.logger.Info("document delete completed",
		"entityRef", d.entityRef,
		"references", len(d.refPKs),
		"uniqueConstraints", len(d.uniquePKs),
		"danglingReferrers", dangling,
	)

	return nil
}

// image is a DynamoDB stream item image. Accessors return the zero value
// for missing or mistyped attributes.
type image map[string]events.DynamoDBAttributeValue

func (im image) str(key string) string {
	if v, ok := im[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

func (im image) num(key string) int64 {
	if v, ok := im[key]; ok && v.DataType() == events.DataTypeNumber {
		n, _ := strconv.ParseInt(v.Number(), 10, 64)
		return n
	}
	return 0
}

// list returns the string members of a list attribute.
func (im image) list(key string) []string {
	v, ok := im[key]
	if !ok || v.DataType() != events.DataTypeList {
		return nil
	}
	var result []string
	for _, item := range v.List() {
		if item.DataType() == events.DataTypeString {
			result = append(result, item.String())
		}
	}
	return result
}

// ConvertStreamKey converts a DynamoDB stream key to a store.PK.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) store.PK {
	result := make(store.PK)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		}
	}
	return result
}

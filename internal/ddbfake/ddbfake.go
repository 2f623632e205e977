// Package ddbfake provides an in-memory stand-in for the DynamoDB operations
// used by the store and stream packages.
//
// Tables are declared up front with their key schema. Condition, filter, key
// condition and update expressions are evaluated for the subset of the
// expression language the store issues: comparisons, AND/OR/NOT,
// attribute_exists, attribute_not_exists, SET with + and -, and REMOVE.
// Transactions are all-or-nothing and fail with the same exception types
// the real service returns.
//
// Failures can be injected per operation with FailNext.
package ddbfake

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MaxTransactItems is the service limit on items in one transaction.
const MaxTransactItems = 100

// KeySchema names the key attributes of a table. SortKey may be empty.
type KeySchema struct {
	PartitionKey string
	SortKey      string
}

type table struct {
	schema KeySchema
	items  map[string]map[string]types.AttributeValue
}

// Client is an in-memory DynamoDB. It is safe for concurrent use.
type Client struct {
	mu       sync.Mutex
	tables   map[string]*table
	failures map[string][]error
	calls    map[string]int
}

// New creates an empty Client.
func New() *Client {
	return &Client{
		tables:   make(map[string]*table),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

// CreateTable declares a table.
func (c *Client) CreateTable(name string, schema KeySchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = &table{schema: schema, items: make(map[string]map[string]types.AttributeValue)}
}

// FailNext makes the next call to op ("GetItem", "UpdateItem", "Query" or
// "TransactWriteItems") return err. Calls queue in order.
func (c *Client) FailNext(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op] = append(c.failures[op], err)
}

// Calls returns how many times op has been invoked.
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Seed stores item unconditionally.
func (c *Client) Seed(tableName string, item map[string]types.AttributeValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(tableName)
	if err != nil {
		return err
	}
	k, err := t.key(item)
	if err != nil {
		return err
	}
	t.items[k] = clone(item)
	return nil
}

// Item returns a copy of the stored item with the given key, or nil.
func (c *Client) Item(tableName string, key map[string]types.AttributeValue) map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(tableName)
	if err != nil {
		return nil
	}
	k, err := t.key(key)
	if err != nil {
		return nil
	}
	if item, ok := t.items[k]; ok {
		return clone(item)
	}
	return nil
}

// Items returns copies of every item in a table, ordered by key.
func (c *Client) Items(tableName string) []map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(tableName)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(t.items[k]))
	}
	return out
}

// begin records a call and returns any injected failure. c.mu must be held.
func (c *Client) begin(op string) error {
	c.calls[op]++
	if q := c.failures[op]; len(q) > 0 {
		c.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (c *Client) table(name string) (*table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + name)}
	}
	return t, nil
}

// key returns the storage key of item under the table schema.
func (t *table) key(item map[string]types.AttributeValue) (string, error) {
	pk, err := scalar(item, t.schema.PartitionKey)
	if err != nil {
		return "", err
	}
	if t.schema.SortKey == "" {
		return pk, nil
	}
	sk, err := scalar(item, t.schema.SortKey)
	if err != nil {
		return "", err
	}
	return pk + "\x00" + sk, nil
}

func (t *table) keyAttrs(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := map[string]types.AttributeValue{t.schema.PartitionKey: item[t.schema.PartitionKey]}
	if t.schema.SortKey != "" {
		out[t.schema.SortKey] = item[t.schema.SortKey]
	}
	return out
}

func scalar(item map[string]types.AttributeValue, name string) (string, error) {
	switch v := item[name].(type) {
	case *types.AttributeValueMemberS:
		return "S" + v.Value, nil
	case *types.AttributeValueMemberN:
		return "N" + v.Value, nil
	case *types.AttributeValueMemberB:
		return "B" + string(v.Value), nil
	}
	return "", validation("missing or invalid key attribute %q", name)
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func validation(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// validationError stands in for the service's ValidationException.
type validationError struct{ msg string }

func (e *validationError) Error() string {
	return "ValidationException: " + e.msg
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var v *validationError
	return errors.As(err, &v)
}

// GetItem implements the DynamoDB GetItem operation.
func (c *Client) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("GetItem"); err != nil {
		return nil, err
	}
	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	k, err := t.key(in.Key)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: clone(t.items[k])}, nil
}

// UpdateItem implements the DynamoDB UpdateItem operation. Missing items are
// created from the key, as the service does.
func (c *Client) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("UpdateItem"); err != nil {
		return nil, err
	}
	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	k, next, err := t.update(in.Key, aws.ToString(in.ConditionExpression), aws.ToString(in.UpdateExpression),
		in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	t.items[k] = next
	return &dynamodb.UpdateItemOutput{Attributes: clone(next)}, nil
}

var errConditionFailed = errors.New("condition failed")

// check evaluates cond against the current item at key.
func (t *table) check(key map[string]types.AttributeValue, cond string, names map[string]string, values map[string]types.AttributeValue) (string, map[string]types.AttributeValue, error) {
	k, err := t.key(key)
	if err != nil {
		return "", nil, err
	}
	current := t.items[k]
	ok, err := evalCondition(cond, env{item: current, names: names, values: values})
	if err != nil {
		return "", nil, validation("%v", err)
	}
	if !ok {
		return k, current, errConditionFailed
	}
	return k, current, nil
}

// update computes the item at key after applying expr, without storing it.
func (t *table) update(key map[string]types.AttributeValue, cond, expr string, names map[string]string, values map[string]types.AttributeValue) (string, map[string]types.AttributeValue, error) {
	k, current, err := t.check(key, cond, names, values)
	if errors.Is(err, errConditionFailed) {
		return "", nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	if err != nil {
		return "", nil, err
	}
	next := clone(current)
	if next == nil {
		next = clone(t.keyAttrs(key))
	}
	if err := applyUpdate(expr, env{item: next, names: names, values: values}); err != nil {
		return "", nil, validation("%v", err)
	}
	return k, next, nil
}

// Query implements the DynamoDB Query operation. Limit bounds the items
// examined before the filter is applied, and pagination follows
// LastEvaluatedKey, matching the service.
func (c *Client) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Query"); err != nil {
		return nil, err
	}
	t, err := c.table(aws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}

	var keys []string
	for k, item := range t.items {
		ok, err := evalCondition(aws.ToString(in.KeyConditionExpression),
			env{item: item, names: in.ExpressionAttributeNames, values: in.ExpressionAttributeValues})
		if err != nil {
			return nil, validation("%v", err)
		}
		if ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if in.ScanIndexForward != nil && !*in.ScanIndexForward {
		slices.Reverse(keys)
	}

	if in.ExclusiveStartKey != nil {
		start, err := t.key(in.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		if i := slices.Index(keys, start); i >= 0 {
			keys = keys[i+1:]
		}
	}

	out := &dynamodb.QueryOutput{}
	if limit := int(aws.ToInt32(in.Limit)); limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		out.LastEvaluatedKey = t.keyAttrs(t.items[keys[limit-1]])
	}

	for _, k := range keys {
		item := t.items[k]
		out.ScannedCount++
		ok, err := evalCondition(aws.ToString(in.FilterExpression),
			env{item: item, names: in.ExpressionAttributeNames, values: in.ExpressionAttributeValues})
		if err != nil {
			return nil, validation("%v", err)
		}
		if ok {
			out.Items = append(out.Items, clone(item))
		}
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

type pendingWrite struct {
	table *table
	key   string
	item  map[string]types.AttributeValue // nil deletes
}

// TransactWriteItems implements the DynamoDB TransactWriteItems operation.
// Every condition is evaluated before anything is written; if any fails the
// call returns a TransactionCanceledException with one reason per item.
func (c *Client) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("TransactWriteItems"); err != nil {
		return nil, err
	}
	if n := len(in.TransactItems); n == 0 || n > MaxTransactItems {
		return nil, validation("transaction must contain 1 to %d items, got %d", MaxTransactItems, n)
	}

	var writes []pendingWrite
	reasons := make([]types.CancellationReason, len(in.TransactItems))
	touched := make(map[string]bool)
	failed := false

	for i, ti := range in.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}

		var (
			t    *table
			k    string
			next map[string]types.AttributeValue
			del  bool
			err  error
		)
		switch {
		case ti.ConditionCheck != nil:
			cc := ti.ConditionCheck
			if t, err = c.table(aws.ToString(cc.TableName)); err != nil {
				return nil, err
			}
			k, _, err = t.check(cc.Key, aws.ToString(cc.ConditionExpression), cc.ExpressionAttributeNames, cc.ExpressionAttributeValues)

		case ti.Put != nil:
			put := ti.Put
			if t, err = c.table(aws.ToString(put.TableName)); err != nil {
				return nil, err
			}
			k, _, err = t.check(put.Item, aws.ToString(put.ConditionExpression), put.ExpressionAttributeNames, put.ExpressionAttributeValues)
			next = clone(put.Item)

		case ti.Update != nil:
			up := ti.Update
			if t, err = c.table(aws.ToString(up.TableName)); err != nil {
				return nil, err
			}
			k, next, err = t.update(up.Key, aws.ToString(up.ConditionExpression), aws.ToString(up.UpdateExpression),
				up.ExpressionAttributeNames, up.ExpressionAttributeValues)
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				err = errConditionFailed
			}

		case ti.Delete != nil:
			d := ti.Delete
			if t, err = c.table(aws.ToString(d.TableName)); err != nil {
				return nil, err
			}
			k, _, err = t.check(d.Key, aws.ToString(d.ConditionExpression), d.ExpressionAttributeNames, d.ExpressionAttributeValues)
			del = true

		default:
			return nil, validation("transact item %d has no operation", i)
		}

		if errors.Is(err, errConditionFailed) {
			reasons[i] = types.CancellationReason{
				Code:    aws.String("ConditionalCheckFailed"),
				Message: aws.String("The conditional request failed"),
			}
			failed = true
			continue
		}
		if err != nil {
			return nil, err
		}

		id := fmt.Sprintf("%p/%s", t, k)
		if touched[id] {
			return nil, validation("transaction cannot include multiple operations on one item")
		}
		touched[id] = true

		if next != nil || del {
			writes = append(writes, pendingWrite{table: t, key: k, item: next})
		}
	}

	if failed {
		codes := make([]string, len(reasons))
		for i, r := range reasons {
			codes[i] = aws.ToString(r.Code)
		}
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled, please refer cancellation reasons for specific reasons [" + strings.Join(codes, ", ") + "]"),
			CancellationReasons: reasons,
		}
	}

	for _, w := range writes {
		if w.item == nil {
			delete(w.table.items, w.key)
			continue
		}
		w.table.items[w.key] = w.item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ttlAttr is the attribute DynamoDB TTL is enabled on for every table.
const ttlAttr = "ttl"

// expiry returns the TTL stored on item, if it carries a valid one.
func expiry(item map[string]types.AttributeValue) (int64, bool) {
	n, ok := item[ttlAttr].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	ttl, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return ttl, true
}

// IsDeleted reports whether item carries a TTL at or before now.
// Items without a TTL are active.
func IsDeleted(item map[string]types.AttributeValue) bool {
	ttl, ok := expiry(item)
	return ok && ttl <= time.Now().Unix()
}

// TTLFilterExpr returns the filter expression keeping only active items.
// Pair it with TTLFilterNames and TTLFilterValues.
func TTLFilterExpr() string {
	return "attribute_not_exists(#ttl) OR #ttl > :now"
}

// TTLFilterNames returns the expression attribute names used by the TTL
// expressions.
func TTLFilterNames() map[string]string {
	return map[string]string{"#ttl": ttlAttr}
}

// TTLFilterValues returns the expression attribute values used by the TTL
// expressions, with :now set to the current time.
func TTLFilterValues() map[string]types.AttributeValue {
	return nowValue(time.Now().Unix())
}

// ConstraintFreeCondition returns the condition under which a serial
// constraint item may be claimed: it is absent, or it belonged to a deleted
// document. Use with TTLFilterNames and TTLFilterValues.
func ConstraintFreeCondition() string {
	return "attribute_not_exists(pk) OR #ttl <= :now"
}

// mergeExprValues merges expression attribute value maps; later maps win.
func mergeExprValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

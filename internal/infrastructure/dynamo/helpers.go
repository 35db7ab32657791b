package dynamo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts field->value pairs into a SET expression. When
// parent is non-empty the fields are nested under that map attribute. Keys
// are sorted so the expression is deterministic.
func buildUpdateExpr(parent string, updates map[string]any) (updateExpr, error) {
	if len(updates) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := updateExpr{
		Names:  make(map[string]string, len(keys)+1),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	prefix := ""
	if parent != "" {
		ue.Names["#p"] = parent
		prefix = "#p."
	}
	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		parts = append(parts, fmt.Sprintf("%s%s = %s", prefix, nameKey, valueKey))
	}
	ue.Expr = "SET " + strings.Join(parts, ", ")
	return ue, nil
}

type filterExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildFilterExpr ANDs equality matches on nested fields with an optional
// created_at lower bound. An empty result means no filter.
func buildFilterExpr(equal map[string]any, createdAfter string) (filterExpr, error) {
	fe := filterExpr{Names: map[string]string{}, Values: map[string]types.AttributeValue{}}
	keys := make([]string, 0, len(equal))
	for k := range equal {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	if len(keys) > 0 {
		fe.Names["#p"] = attrFields
	}
	for i, k := range keys {
		av, err := attributevalue.Marshal(equal[k])
		if err != nil {
			return filterExpr{}, fmt.Errorf("marshal filter %s: %w", k, err)
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		fe.Names[nameKey] = k
		fe.Values[valueKey] = av
		parts = append(parts, fmt.Sprintf("#p.%s = %s", nameKey, valueKey))
	}
	if createdAfter != "" {
		fe.Names["#c"] = attrCreatedAt
		fe.Values[":after"] = &types.AttributeValueMemberS{Value: createdAfter}
		parts = append(parts, "#c > :after")
	}
	fe.Expr = strings.Join(parts, " AND ")
	return fe, nil
}

package entry

// Field names a filterable column of a ledger entry.
type Field string

const (
	FieldID          Field = "id"
	FieldDescription Field = "description"
	FieldMonth       Field = "month"
	FieldYear        Field = "year"
	FieldValue       Field = "value"
	FieldType        Field = "type"
	FieldStatus      Field = "status"
	FieldUserID      Field = "user_id"
)

// Criterion is a single equality predicate: Field must equal Value.
type Criterion struct {
	Field Field
	Value any
}

// Criteria is a conjunction of equality predicates. An empty Criteria matches every entry.
type Criteria []Criterion

// CriteriaFrom builds the predicates for a partial-match search. Every field of the
// filter that differs from its zero value constrains the result; zero fields are wildcards.
func CriteriaFrom(filter Entry) Criteria {
	var c Criteria
	if filter.ID != 0 {
		c = append(c, Criterion{Field: FieldID, Value: filter.ID})
	}
	if filter.Description != "" {
		c = append(c, Criterion{Field: FieldDescription, Value: filter.Description})
	}
	if filter.Month != 0 {
		c = append(c, Criterion{Field: FieldMonth, Value: filter.Month})
	}
	if filter.Year != 0 {
		c = append(c, Criterion{Field: FieldYear, Value: filter.Year})
	}
	if !filter.Value.IsZero() {
		c = append(c, Criterion{Field: FieldValue, Value: filter.Value})
	}
	if filter.Type != "" {
		c = append(c, Criterion{Field: FieldType, Value: filter.Type})
	}
	if filter.Status != "" {
		c = append(c, Criterion{Field: FieldStatus, Value: filter.Status})
	}
	if id := filter.UserID(); id != 0 {
		c = append(c, Criterion{Field: FieldUserID, Value: id})
	}
	return c
}

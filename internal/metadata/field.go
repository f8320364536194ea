package metadata

// Field names one mergeable metadata field. Field values double as the keys
// of provenance maps and of user-supplied override maps, so they are stable
// strings rather than positional indexes.
type Field string

const (
	FieldName          Field = "name"
	FieldPublisher     Field = "publisher"
	FieldImprint       Field = "imprint"
	FieldStartYear     Field = "start_year"
	FieldEndYear       Field = "end_year"
	FieldStatus        Field = "status"
	FieldDescription   Field = "description"
	FieldCoverURL      Field = "cover_url"
	FieldAgeRating     Field = "age_rating"
	FieldCountOfIssues Field = "count_of_issues"
	FieldRating        Field = "rating"
	FieldWeb           Field = "web"
	FieldAliases       Field = "aliases"
	FieldCreators      Field = "creators"
	FieldGenres        Field = "genres"
	FieldCharacters    Field = "characters"
	FieldTeams         Field = "teams"
	FieldLocations     Field = "locations"

	// Issue-only fields.
	FieldSeriesID   Field = "series_id"
	FieldSeriesName Field = "series_name"
	FieldNumber     Field = "number"
	FieldTitle      Field = "title"
	FieldCoverDate  Field = "cover_date"
	FieldStoreDate  Field = "store_date"
	FieldSummary    Field = "summary"
)

// emptyValue reports whether a raw field value counts as "no data": empty
// strings, zero numbers, nil, and empty arrays all fall through to the next
// source during a merge and are never recorded as a field's winner.
func emptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int:
		return t == 0
	case float64:
		return t == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}

func copyStrings(src []string) []string {
	if len(src) == 0 {
		return nil
	}
	return append([]string(nil), src...)
}

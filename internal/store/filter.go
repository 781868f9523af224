package store

import (
	"net/url"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

// buildFilter turns shallow string equalities into a Mongo filter. Upstream
// documents store numbers, query strings carry text, so numeric-looking
// values match either representation.
func buildFilter(filter map[string]string) bson.M {
	out := bson.M{}
	for key, value := range filter {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			out[key] = bson.M{"$in": bson.A{n, value}}
			continue
		}
		out[key] = value
	}
	return out
}

// FilterFromQuery flattens query-string values into the shallow equality
// filter the store understands. Repeated keys keep the first value.
func FilterFromQuery(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}
	return out
}

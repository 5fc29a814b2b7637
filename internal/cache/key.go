package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/harrison/itemforge/internal/models"
)

// keyVersion changes whenever compiled output for the same input would change
const keyVersion = "itemforge-cache-v1"

// ContentKey returns a hex SHA-256 over a canonical encoding of the item and
// a caller-supplied variant string (compiler options, output mode). Source
// path is excluded so moved files still hit.
func ContentKey(item *models.Item, variant string) string {
	h := sha256.New()
	field := func(name, value string) {
		// Length-prefixed so no two encodings collide
		fmt.Fprintf(h, "%s:%d:%s;", name, len(value), value)
	}

	field("version", keyVersion)
	field("variant", variant)
	field("identifier", item.Identifier)
	field("title", item.Title)
	field("body", item.Body)

	for _, d := range item.ResponseDeclarations {
		field("decl", d.Identifier)
		field("cardinality", string(d.Cardinality))
		field("base_type", string(d.BaseType))
		for _, v := range d.Correct {
			if v == nil {
				field("value", "<nil>")
				continue
			}
			field("value", string(v.BaseType())+"|"+v.String())
		}
		if d.Rounding != nil {
			field("rounding", d.Rounding.Strategy+"|"+strconv.Itoa(d.Rounding.Figures))
		}
	}

	field("mode", string(item.FeedbackPlan.Mode))
	for _, dim := range item.FeedbackPlan.Dimensions {
		field("dim", dim.ResponseIdentifier)
		if dim.Kind != nil {
			field("kind", dim.Kind.Name())
			for _, k := range dim.Kind.Keys() {
				field("key", k)
			}
		}
	}
	for _, c := range item.FeedbackPlan.Combinations {
		field("combo", c.ID)
		for _, step := range c.Path {
			field("step", step.ResponseIdentifier+"="+step.Key)
		}
	}

	ids := make([]string, 0, len(item.Feedback))
	for id := range item.Feedback {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		field("feedback", id)
		field("text", item.Feedback[id])
	}

	return hex.EncodeToString(h.Sum(nil))
}

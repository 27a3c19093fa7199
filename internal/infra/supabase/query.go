package supabase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// buildQuery renders q as PostgREST query parameters over the jsonb data
// column. Values compare as text, so ordering is lexicographic; stored
// timestamps use a fixed-width layout and sort chronologically.
func buildQuery(collection string, q port.Query, columns string) string {
	params := []string{
		"select=" + columns,
		"collection=eq." + quoteParam(collection),
	}

	if q.Where != nil {
		params = append(params, url.QueryEscape(fieldExpr(q.Where.Field))+"="+filterOp(q.Where.Value))
	}

	// Nulls sort lowest in both directions; id breaks ties ascending.
	if q.OrderBy != nil {
		dir := "asc.nullsfirst"
		if q.OrderBy.Desc {
			dir = "desc.nullslast"
		}
		params = append(params, "order="+url.QueryEscape(fieldExpr(q.OrderBy.Field))+"."+dir+",id.asc")
	} else {
		params = append(params, "order=id.asc")
	}

	if q.StartAfter != nil {
		params = append(params, "or="+url.QueryEscape(cursorFilter(q)))
	}

	if q.Limit > 0 {
		params = append(params, "limit="+strconv.Itoa(q.Limit))
	}
	return strings.Join(params, "&")
}

// fieldExpr maps a dotted document path to a jsonb text accessor:
// "notifications.email" -> data->notifications->>email.
func fieldExpr(path string) string {
	if path == domain.FieldID {
		return "id"
	}
	parts := strings.Split(path, ".")
	expr := "data"
	for i, p := range parts {
		if i == len(parts)-1 {
			expr += "->>" + p
		} else {
			expr += "->" + p
		}
	}
	return expr
}

func filterOp(v any) string {
	if v == nil {
		return "is.null"
	}
	return "eq." + quoteParam(textValue(v))
}

// cursorFilter selects rows strictly after the cursor in (field, id) order.
func cursorFilter(q port.Query) string {
	cur := q.StartAfter
	idCond := "id.gt." + quoteList(cur.ID)
	if q.OrderBy == nil {
		return "(" + idCond + ")"
	}

	field := fieldExpr(q.OrderBy.Field)
	value, _ := lookup(cur.Data, q.OrderBy.Field)
	if value == nil {
		if q.OrderBy.Desc {
			return "(and(" + field + ".is.null," + idCond + "))"
		}
		return "(" + field + ".not.is.null,and(" + field + ".is.null," + idCond + "))"
	}

	text := quoteList(textValue(value))
	cmp := "gt"
	if q.OrderBy.Desc {
		cmp = "lt"
	}
	conds := []string{
		field + "." + cmp + "." + text,
		"and(" + field + ".eq." + text + "," + idCond + ")",
	}
	if q.OrderBy.Desc {
		conds = append(conds, field+".is.null")
	}
	return "(" + strings.Join(conds, ",") + ")"
}

// textValue renders v the way Postgres renders jsonb ->> text.
func textValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}

// quoteParam escapes a value used directly as a query parameter value.
func quoteParam(v string) string {
	return url.QueryEscape(v)
}

// quoteList double-quotes a value inside an or=(...) list.
func quoteList(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func lookup(doc port.Document, path string) (any, bool) {
	var cur any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		var m map[string]any
		switch x := cur.(type) {
		case map[string]any:
			m = x
		case port.Document:
			m = x
		default:
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

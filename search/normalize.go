package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const noDescription = "No description available"

// envelopes are the keys under which providers nest their result lists.
var envelopes = []string{"organic_results", "results", "items", "data"}

var (
	titleKeys   = []string{"title", "name", "heading"}
	linkKeys    = []string{"link", "url", "href", "source"}
	snippetKeys = []string{"snippet", "description", "content", "text", "body", "summary"}
)

// Normalize maps raw provider output to an ordered result list. It accepts a
// JSON-encoded string, a plain string, a slice of strings, a slice of
// objects, or an object wrapping one of those. A JSON object with neither a
// result list nor result fields yields no results; text that is not JSON
// becomes a single result carrying the raw text.
func Normalize(raw any) []Result {
	switch v := raw.(type) {
	case nil:
		return nil
	case []Result:
		return append([]Result(nil), v...)
	case Result:
		return []Result{v}
	case []byte:
		return normalizeText(string(v))
	case string:
		return normalizeText(v)
	case []string:
		out := make([]Result, 0, len(v))
		for i, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, textResult(i, s))
			}
		}
		return out
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return []Result{synthetic(fmt.Sprint(raw))}
	}
	return normalizeJSON(gjson.ParseBytes(data), string(data))
}

func normalizeText(s string) []Result {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if gjson.Valid(s) {
		return normalizeJSON(gjson.Parse(s), s)
	}
	return []Result{synthetic(s)}
}

func normalizeJSON(v gjson.Result, raw string) []Result {
	switch {
	case v.IsArray():
		var out []Result
		for i, item := range v.Array() {
			if r, ok := fromItem(i, item); ok {
				out = append(out, r)
			}
		}
		return out
	case v.IsObject():
		for _, key := range envelopes {
			if inner := v.Get(key); inner.IsArray() {
				return normalizeJSON(inner, inner.Raw)
			}
		}
		if r, ok := fromItem(0, v); ok && (firstOf(v, titleKeys) != "" || firstOf(v, snippetKeys) != "") {
			return []Result{r}
		}
		// A well-formed response without a result list, such as a SerpAPI
		// body with no organic_results, means no results.
		return nil
	case v.Type == gjson.String:
		if s := strings.TrimSpace(v.String()); s != "" {
			return []Result{synthetic(s)}
		}
		return nil
	case v.Type == gjson.Null:
		return nil
	default:
		return []Result{synthetic(raw)}
	}
}

func fromItem(i int, item gjson.Result) (Result, bool) {
	switch {
	case item.Type == gjson.String:
		s := strings.TrimSpace(item.String())
		if s == "" {
			return Result{}, false
		}
		return textResult(i, s), true
	case item.IsObject():
		r := Result{
			Title:   firstOf(item, titleKeys),
			Link:    firstOf(item, linkKeys),
			Snippet: firstOf(item, snippetKeys),
		}
		if r.Title == "" && r.Snippet == "" && r.Link == "" {
			return Result{}, false
		}
		if r.Title == "" {
			r.Title = fmt.Sprintf("Result %d", i+1)
		}
		if r.Link == "" {
			r.Link = "N/A"
		}
		if r.Snippet == "" {
			r.Snippet = noDescription
		}
		return r, true
	case item.Type == gjson.Null:
		return Result{}, false
	default:
		return textResult(i, item.Raw), true
	}
}

func firstOf(obj gjson.Result, keys []string) string {
	for _, k := range keys {
		if f := obj.Get(k); f.Exists() && f.Type == gjson.String {
			if s := strings.TrimSpace(f.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func textResult(i int, s string) Result {
	return Result{Title: fmt.Sprintf("Result %d", i+1), Link: "N/A", Snippet: s}
}

func synthetic(s string) Result {
	return Result{Title: "Search Result", Link: "N/A", Snippet: s}
}

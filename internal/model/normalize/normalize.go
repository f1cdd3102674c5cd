package normalize

import (
	"bytes"
	"fmt"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/tidwall/gjson"
)

// Normalize turns a raw provider body into a Response. Strict dialects fail
// on bodies they cannot read; tolerant dialects fall back to raw text.
func Normalize(d contract.Dialect, raw []byte) (*contract.Response, error) {
	payload, ok := decodePayload(raw)
	if !ok {
		if d.Tolerant() {
			return &contract.Response{Text: rawText(raw), Raw: raw}, nil
		}
		return nil, pgptErrors.Malformed(fmt.Sprintf("%s response is not a JSON object", d), nil)
	}

	var (
		resp *contract.Response
		err  error
	)
	switch d.Family {
	case contract.FamilyOpenAI:
		resp, err = matchShape(openAIShapes, d, payload)
	case contract.FamilyAnthropic:
		resp, err = matchShape(anthropicShapes, d, payload)
	default:
		return nil, pgptErrors.InvalidInput(fmt.Sprintf("unsupported dialect %s", d))
	}
	if err != nil {
		return nil, err
	}

	resp.Raw = raw
	return resp, nil
}

// decodePayload returns the top-level JSON object, unwrapping one level of
// string encoding when a proxy serialized the body twice.
func decodePayload(raw []byte) (gjson.Result, bool) {
	trimmed := bytes.TrimSpace(raw)
	if !gjson.ValidBytes(trimmed) {
		return gjson.Result{}, false
	}

	r := gjson.ParseBytes(trimmed)
	if r.Type == gjson.String {
		inner := r.String()
		if !gjson.Valid(inner) {
			return gjson.Result{}, false
		}
		r = gjson.Parse(inner)
	}

	if !r.IsObject() {
		return gjson.Result{}, false
	}
	return r, true
}

// rawText unquotes a bare JSON string and otherwise returns raw unchanged.
func rawText(raw []byte) string {
	r := gjson.ParseBytes(bytes.TrimSpace(raw))
	if r.Type == gjson.String && gjson.ValidBytes(bytes.TrimSpace(raw)) {
		return r.String()
	}
	return string(raw)
}

// shape is one recognized response layout. Shapes are tried in slice order
// and the first whose match predicate holds extracts the response.
type shape struct {
	name    string
	match   func(d contract.Dialect, r gjson.Result) bool
	extract func(r gjson.Result) (*contract.Response, error)
}

func matchShape(shapes []shape, d contract.Dialect, r gjson.Result) (*contract.Response, error) {
	for _, s := range shapes {
		if s.match(d, r) {
			return s.extract(r)
		}
	}
	return nil, pgptErrors.Unrecognized(fmt.Sprintf("%s response matched no known shape", d))
}

// stringify is the last resort of tolerant dialects.
var stringify = shape{
	name:  "stringified",
	match: func(d contract.Dialect, _ gjson.Result) bool { return d.Tolerant() },
	extract: func(r gjson.Result) (*contract.Response, error) {
		return &contract.Response{Text: r.Raw}, nil
	},
}

// valueText renders a fallback field: strings as-is, anything else as JSON.
func valueText(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	return v.Raw
}

// present treats missing, null, false, zero and empty string as absent.
func present(v gjson.Result) bool {
	if !v.Exists() {
		return false
	}
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return v.String() != ""
	case gjson.Number:
		return v.Num != 0
	}
	return true
}

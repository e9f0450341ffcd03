package checkout

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// The order service's creation response has no stable shape: depending on
// the deployed version the created identifier shows up as a top-level
// orderId, a top-level id, or buried inside a nested object. Extraction
// tries each known shape in a fixed order and stops at the first hit.

type extractionStrategy struct {
	name string
	fn   func(raw json.RawMessage) (string, bool)
}

var (
	orderIDPattern = regexp.MustCompile(`"orderId"\s*:\s*(\d+)`)
	idPattern      = regexp.MustCompile(`"id"\s*:\s*(\d+)`)
)

var orderIDStrategies = []extractionStrategy{
	{name: "direct orderId field", fn: topLevelField("orderId")},
	{name: "direct id field", fn: topLevelField("id")},
	{name: "orderId body scan", fn: bodyScan(orderIDPattern)},
	{name: "id body scan", fn: bodyScan(idPattern)},
}

// ExtractOrderID digs the created-order identifier out of a raw creation
// response. It returns the identifier, the name of the strategy that
// found it, and whether any strategy succeeded.
func ExtractOrderID(raw json.RawMessage) (string, string, bool) {
	for _, strategy := range orderIDStrategies {
		if id, ok := strategy.fn(raw); ok {
			return id, strategy.name, true
		}
	}
	return "", "", false
}

func topLevelField(key string) func(json.RawMessage) (string, bool) {
	return func(raw json.RawMessage) (string, bool) {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		var payload map[string]any
		if err := decoder.Decode(&payload); err != nil {
			return "", false
		}
		switch v := payload[key].(type) {
		case json.Number:
			return v.String(), v.String() != ""
		case string:
			return v, v != ""
		default:
			return "", false
		}
	}
}

func bodyScan(pattern *regexp.Regexp) func(json.RawMessage) (string, bool) {
	return func(raw json.RawMessage) (string, bool) {
		match := pattern.FindSubmatch(raw)
		if match == nil {
			return "", false
		}
		return string(match[1]), true
	}
}

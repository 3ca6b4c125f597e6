package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/valyala/fastjson"
)

// excerptLimit is the number of runes kept in a record excerpt
const excerptLimit = 400

var tsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+(?:Z|[+-]\d{2}:?\d{2})`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:?\d{2})`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}`),
}

var reqIDPattern = regexp.MustCompile(`tf_req_id[:=\s]([A-Za-z0-9_\-:.]+)`)

var jsonObjectPattern = regexp.MustCompile(`(?s)(\{.*\})`)

var (
	timestampFields = []string{"timestamp", "@timestamp"}
	levelFields     = []string{"level", "@level", "log_level", "lvl"}
	reqIDFields     = []string{"tf_req_id", "req_id", "request_id", "tf_request_id"}
	resourceFields  = []string{"tf_resource", "resource", "tf_resource_type", "type"}
	bodyFields      = []string{"tf_http_req_body", "tf_http_res_body", "http_request_body", "http_response_body"}
)

// Keyword lists are checked in severity order, first hit wins
var levelKeywords = []struct {
	level    model.Level
	keywords []string
}{
	{model.LevelError, []string{"error", "failed", "panic", "exception", "traceback"}},
	{model.LevelWarning, []string{"warning", "deprecated", "deprecation"}},
	{model.LevelInfo, []string{"info", "notice", "started", "complete", "success"}},
	{model.LevelDebug, []string{"debug", "verbose"}},
}

// Body is an HTTP payload embedded in a log line
type Body struct {
	Type string `json:"body_type"`
	JSON string `json:"body_json"`
}

// stringField returns the first present field among keys rendered as a string.
// Non-string scalars are rendered as their JSON text.
func stringField(obj *fastjson.Value, keys ...string) string {
	if obj == nil {
		return ""
	}
	for _, k := range keys {
		v := obj.Get(k)
		if v == nil || v.Type() == fastjson.TypeNull {
			continue
		}
		if v.Type() == fastjson.TypeString {
			return string(v.GetStringBytes())
		}
		return v.String()
	}
	return ""
}

func extractTimestamp(texts ...string) string {
	for _, s := range texts {
		if s == "" {
			continue
		}
		for _, p := range tsPatterns {
			if m := p.FindString(s); m != "" {
				return m
			}
		}
	}
	return ""
}

func levelFromObject(obj *fastjson.Value) model.Level {
	if obj == nil {
		return model.LevelOther
	}
	for _, k := range levelFields {
		v := obj.Get(k)
		if v == nil || v.Type() != fastjson.TypeString {
			continue
		}
		if lvl := model.ParseLevel(string(v.GetStringBytes())); lvl != model.LevelOther {
			return lvl
		}
	}
	return model.LevelOther
}

func guessLevel(s string) model.Level {
	low := strings.ToLower(s)
	for _, lk := range levelKeywords {
		for _, w := range lk.keywords {
			if strings.Contains(low, w) {
				return lk.level
			}
		}
	}
	return model.LevelOther
}

func detectSection(s string) string {
	low := strings.ToLower(s)
	switch {
	case strings.Contains(low, "terraform plan"), strings.Contains(low, "\nplan:"), strings.Contains(low, " plan "):
		return "plan"
	case strings.Contains(low, "terraform apply"), strings.Contains(low, "\napply:"), strings.Contains(low, " apply "):
		return "apply"
	}
	return ""
}

func extractReqID(obj *fastjson.Value, text string) string {
	if id := stringField(obj, reqIDFields...); id != "" {
		return id
	}
	if m := reqIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractBodies(obj *fastjson.Value) []Body {
	if obj == nil {
		return nil
	}
	var bodies []Body
	for _, k := range bodyFields {
		v := obj.Get(k)
		if v == nil || isEmpty(v) {
			continue
		}
		if v.Type() != fastjson.TypeString {
			bodies = append(bodies, Body{Type: k, JSON: v.String()})
			continue
		}
		bodies = append(bodies, Body{Type: k, JSON: decodeBody(string(v.GetStringBytes()))})
	}
	return bodies
}

// decodeBody returns s when it is JSON, else the first embedded {...} when
// that is JSON, else s encoded as a JSON string.
func decodeBody(s string) string {
	if fastjson.Validate(s) == nil {
		return s
	}
	if m := jsonObjectPattern.FindString(s); m != "" && fastjson.Validate(m) == nil {
		return m
	}
	var a fastjson.Arena
	return a.NewString(s).String()
}

func isEmpty(v *fastjson.Value) bool {
	switch v.Type() {
	case fastjson.TypeNull, fastjson.TypeFalse:
		return true
	case fastjson.TypeString:
		return len(v.GetStringBytes()) == 0
	case fastjson.TypeObject:
		o, _ := v.Object()
		return o.Len() == 0
	case fastjson.TypeArray:
		return len(v.GetArray()) == 0
	}
	return false
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:excerptLimit]) + "..."
}

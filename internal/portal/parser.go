// ===== internal/portal/parser.go =====
package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"autoauth/pkg/models"
)

// ParseSummary extracts a short outcome from the portal reply. The reply is
// usually JSONP such as dr1005({...}); when no usable JSON is found a keyword
// heuristic is applied. An empty result means no summary is available.
func ParseSummary(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start >= 0 && end > start {
		if summary, err := parseJSONSummary(body[start : end+1]); err == nil && summary != "" {
			return summary
		}
	}

	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "success"):
		return "登录成功"
	case strings.Contains(lower, "ok"):
		return "登录成功(可能)"
	case strings.Contains(lower, "error"):
		return "登录失败"
	case strings.Contains(lower, "fail"):
		return "登录失败"
	}
	return ""
}

func parseJSONSummary(raw string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return "", err
	}

	result := field(obj, "result", "ret_code")
	msg := field(obj, "msg", "message")

	var parts []string
	if result != "" {
		parts = append(parts, "result="+result)
	}
	if msg != "" {
		parts = append(parts, "msg="+msg)
	}
	return strings.Join(parts, ", "), nil
}

// field returns the first of keys present with a non-null value, as text.
// A JSON null is treated as absent rather than rendered as "null".
func field(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case json.Number:
			return t.String()
		case bool:
			return fmt.Sprint(t)
		default:
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(t); err != nil {
				return fmt.Sprint(t)
			}
			return strings.TrimSpace(buf.String())
		}
	}
	return ""
}

// Interpret turns a portal reply into an outcome
func Interpret(resp Response) models.PortalOutcome {
	return models.PortalOutcome{
		HTTPStatus: resp.Status,
		Summary:    ParseSummary(resp.Body),
		Raw:        resp.Body,
	}
}

// OutcomeLine renders an outcome as "HTTP <code> | <summary>", or just the
// status when there is no summary.
func OutcomeLine(o models.PortalOutcome) string {
	if o.Summary == "" {
		return fmt.Sprintf("HTTP %d", o.HTTPStatus)
	}
	return fmt.Sprintf("HTTP %d | %s", o.HTTPStatus, o.Summary)
}

// FailureLine renders a transport failure for status and log output
func FailureLine(err error) string {
	return "请求失败: " + err.Error()
}

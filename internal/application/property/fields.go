package property

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/validate"
)

// Sanitize keeps allow-listed fields and coerces each to the type the record
// store expects. On create, required fields must be present and Status
// defaults to Available.
func Sanitize(in map[string]any, create bool) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for name, raw := range in {
		kind, ok := domain.WritableFields[name]
		if !ok || raw == nil {
			continue
		}
		v, keep, err := coerce(name, kind, raw)
		if err != nil {
			return nil, domain.Errorf(domain.ErrBadRequest, "%s", err.Error())
		}
		if keep {
			out[name] = v
		}
	}
	if create {
		var missing []string
		for _, f := range domain.RequiredOnCreate {
			if _, ok := out[f]; !ok {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			return nil, domain.Errorf(domain.ErrBadRequest, "Missing required fields: %s", strings.Join(missing, ", "))
		}
		if _, ok := out[domain.FieldStatus]; !ok {
			out[domain.FieldStatus] = domain.StatusAvailable
		}
	}
	return out, nil
}

func coerce(name string, kind domain.FieldKind, raw any) (any, bool, error) {
	switch kind {
	case domain.KindFloat:
		f, ok, err := number(raw)
		if err != nil {
			return nil, false, fmt.Errorf("%s must be a number", name)
		}
		return f, ok, nil
	case domain.KindInt:
		f, ok, err := number(raw)
		if err != nil {
			return nil, false, fmt.Errorf("%s must be a whole number", name)
		}
		if !ok {
			return nil, false, nil
		}
		return int64(math.Round(f)), true, nil
	case domain.KindEmail:
		s := strings.TrimSpace(text(raw))
		if s == "" {
			return nil, false, nil
		}
		if !validate.EmailShape(s) {
			return nil, false, fmt.Errorf("%s must be a valid email address", name)
		}
		return s, true, nil
	case domain.KindStatus:
		s := strings.TrimSpace(text(raw))
		if !domain.ValidStatus(s) {
			return nil, false, fmt.Errorf("Status must be one of %s, %s, %s", domain.StatusAvailable, domain.StatusSold, domain.StatusPending)
		}
		return s, true, nil
	case domain.KindAttachment:
		att, err := attachments(raw)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", name, err)
		}
		return att, len(att) > 0, nil
	default:
		s := strings.TrimSpace(text(raw))
		return s, s != "", nil
	}
}

// number accepts finite JSON numbers and numeric strings; "$" and "," are
// ignored. An empty string means "not provided".
func number(raw any) (float64, bool, error) {
	f, ok, err := parseNumber(raw)
	if err != nil || !ok {
		return 0, ok, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("non-finite number %v", f)
	}
	return f, true, nil
}

func parseNumber(raw any) (float64, bool, error) {
	switch x := raw.(type) {
	case float64:
		return x, true, nil
	case int:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case json.Number:
		f, err := x.Float64()
		return f, err == nil, err
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(x)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, err
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported type %T", raw)
	}
}

func text(raw any) string {
	switch x := raw.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// attachments turns a URL, a list of URLs, or a list of {url} objects into
// the record store's attachment shape.
func attachments(raw any) ([]map[string]any, error) {
	var urls []string
	switch x := raw.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			urls = append(urls, s)
		}
	case []any:
		for _, item := range x {
			switch v := item.(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					urls = append(urls, s)
				}
			case map[string]any:
				if s, _ := v["url"].(string); s != "" {
					urls = append(urls, s)
				}
			default:
				return nil, fmt.Errorf("unsupported attachment %T", item)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported attachment value %T", raw)
	}
	out := make([]map[string]any, 0, len(urls))
	for _, u := range urls {
		if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
			return nil, fmt.Errorf("attachment url must be http(s)")
		}
		out = append(out, map[string]any{"url": u})
	}
	return out, nil
}

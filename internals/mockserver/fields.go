package mockserver

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

const dateFormat = "2006-01-02"

var dateTimeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var decimalContext = apd.BaseContext.WithPrecision(20)

// clean converts a decoded JSON value to the stored representation of f. The
// second return value is a validation message, empty when the value is valid.
func (s *Server) clean(f field, raw interface{}) (interface{}, string) {
	if raw == nil {
		if f.nullable {
			return nil, ""
		}
		return nil, "This field may not be null."
	}

	switch f.kind {
	case kindText, kindEmail:
		text, ok := asString(raw)
		if !ok {
			return nil, "Not a valid string."
		}
		text = strings.TrimSpace(text)
		if text == "" {
			if f.blank {
				return "", ""
			}
			return nil, "This field may not be blank."
		}
		if f.maxLen > 0 && len([]rune(text)) > f.maxLen {
			return nil, fmt.Sprintf("Ensure this field has no more than %d characters.", f.maxLen)
		}
		if f.kind == kindEmail {
			addr, err := mail.ParseAddress(text)
			if err != nil || addr.Address != text {
				return nil, "Enter a valid email address."
			}
		}
		return text, ""

	case kindChoice:
		text, ok := asString(raw)
		if !ok {
			return nil, fmt.Sprintf("\"%v\" is not a valid choice.", raw)
		}
		if text == "" && f.blank {
			return "", ""
		}
		for _, choice := range f.choices {
			if choice == text {
				return text, ""
			}
		}
		return nil, fmt.Sprintf("\"%s\" is not a valid choice.", text)

	case kindDate:
		text, _ := raw.(string)
		d, err := time.Parse(dateFormat, strings.TrimSpace(text))
		if err != nil {
			return nil, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
		}
		return d, ""

	case kindDateTime:
		text, _ := raw.(string)
		text = strings.TrimSpace(text)
		for _, layout := range dateTimeFormats {
			if t, err := time.Parse(layout, text); err == nil {
				return t.UTC(), ""
			}
		}
		return nil, "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."

	case kindInt:
		n, ok := asInt(raw)
		if !ok {
			return nil, "A valid integer is required."
		}
		if msg := checkBounds(f, float64(n)); msg != "" {
			return nil, msg
		}
		return n, ""

	case kindDecimal:
		text, ok := asString(raw)
		if !ok {
			return nil, "A valid number is required."
		}
		d, _, err := apd.NewFromString(strings.TrimSpace(text))
		if err != nil || d.Form != apd.Finite {
			return nil, "A valid number is required."
		}
		quantized := new(apd.Decimal)
		if _, err := decimalContext.Quantize(quantized, d, -f.places); err != nil {
			return nil, "A valid number is required."
		}
		value, _ := quantized.Float64()
		if msg := checkBounds(f, value); msg != "" {
			return nil, msg
		}
		return quantized, ""

	case kindBool:
		switch v := raw.(type) {
		case bool:
			return v, ""
		case string:
			switch strings.ToLower(v) {
			case "true", "1", "yes", "on":
				return true, ""
			case "false", "0", "no", "off":
				return false, ""
			}
		case json.Number:
			switch v.String() {
			case "1":
				return true, ""
			case "0":
				return false, ""
			}
		}
		return nil, "Must be a valid boolean."

	case kindPatient:
		id, ok := asInt(raw)
		if !ok {
			return nil, fmt.Sprintf("Incorrect type. Expected pk value, received %s.", jsonType(raw))
		}
		if _, exists := s.tables[patients.name].rows[id]; !exists {
			return nil, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
		}
		return id, ""
	}
	return raw, ""
}

func checkBounds(f field, value float64) string {
	if f.min != nil && value < *f.min {
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", strconv.FormatFloat(*f.min, 'f', -1, 64))
	}
	if f.max != nil && value > *f.max {
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", strconv.FormatFloat(*f.max, 'f', -1, 64))
	}
	return ""
}

func asString(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}
	return "", false
}

func asInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func jsonType(raw interface{}) string {
	switch raw.(type) {
	case string:
		return "str"
	case bool:
		return "bool"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "dict"
	}
	return "float"
}

// renderValue converts a stored value to its JSON representation.
func renderValue(kind fieldKind, value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		if kind == kindDate {
			return v.Format(dateFormat)
		}
		return v.UTC().Format(time.RFC3339Nano)
	case *apd.Decimal:
		return v.Text('f')
	}
	return value
}

// compareValues orders two stored values of the same field. Nil sorts first.
func compareValues(a interface{}, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch av := a.(type) {
	case int:
		bv := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(strings.ToLower(av), strings.ToLower(b.(string)))
	case time.Time:
		return av.Compare(b.(time.Time))
	case *apd.Decimal:
		return av.Cmp(b.(*apd.Decimal))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	}
	return 0
}

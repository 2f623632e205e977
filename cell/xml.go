package cell

import (
	"encoding"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the layout used for time values in character data.
const TimeLayout = time.RFC3339

// MarshalXML writes the cell as a single element. A cell with neither value
// nor metadata writes nothing.
func (c Cell[T]) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if !c.set && c.Meta.IsZero() {
		return nil
	}
	if c.Class != Unset {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "cls"}, Value: c.Class.String()})
	}
	if c.Remark != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "remarks"}, Value: c.Remark})
	}
	var text string
	if c.set {
		s, err := formatValue(c.value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", start.Name.Local, err)
		}
		text = s
	}
	return e.EncodeElement(text, start)
}

// UnmarshalXML reads a cell element. Empty character data leaves the value absent.
func (c *Cell[T]) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		Text   string         `xml:",chardata"`
		Class  Classification `xml:"cls,attr"`
		Remark string         `xml:"remarks,attr"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}

	c.Meta = Meta{Class: raw.Class, Remark: raw.Remark}
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		c.Unset()
		return nil
	}
	if err := parseValue(text, &c.value); err != nil {
		return fmt.Errorf("unmarshal %s: %w", start.Name.Local, err)
	}
	c.set = true
	return nil
}

func formatValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.Format(TimeLayout), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		return string(b), err
	}
	return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
}

func parseValue(s string, dst any) error {
	var err error
	switch p := dst.(type) {
	case *string:
		*p = s
	case *float64:
		*p, err = strconv.ParseFloat(s, 64)
	case *int:
		*p, err = strconv.Atoi(s)
	case *int64:
		*p, err = strconv.ParseInt(s, 10, 64)
	case *uint64:
		*p, err = strconv.ParseUint(s, 10, 64)
	case *bool:
		*p, err = strconv.ParseBool(s)
	case *time.Time:
		*p, err = time.Parse(TimeLayout, s)
	case encoding.TextUnmarshaler:
		err = p.UnmarshalText([]byte(s))
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, dst)
	}
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidValue, s, err)
	}
	return nil
}

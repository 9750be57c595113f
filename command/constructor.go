package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/shibukawa/scrapbook/parser"
	"github.com/shibukawa/scrapbook/tokenizer"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	isoDateLayout = "2006-01-02T15:04:05.000Z"
	dateLayout    = "Mon Jan 02 2006 15:04:05 GMT-0700"

	// largest distance from the epoch a JavaScript Date can hold, in milliseconds
	maxDateMillis = 8.64e15
)

// layouts tried after ISO-8601 date-times
var dateLayouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"2006-01-02Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15Z07:00",
	"2006/01/02",
	"2006/01/02 15:04:05",
	dateLayout,
	"Mon Jan 02 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2, 2006 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
}

// constructor materializes ObjectId(), Date() and ISODate() calls used as values.
func (m *materializer) constructor(n *parser.Node) (any, error) {
	name := n.Children[0].Token().Value

	switch name {
	case "ObjectId", "Date", "ISODate":
	default:
		return nil, m.fail(n, fmt.Errorf("%w '%s'", ErrUnknownConstructor, name))
	}

	var args []*parser.Node
	if arguments := n.First(parser.ARGUMENTS); arguments != nil {
		args = arguments.All(parser.ARGUMENT)
	}

	if n.Incomplete {
		return nil, m.unparseable(n)
	}

	if len(args) > 1 {
		return nil, m.fail(n, fmt.Errorf("%w: %s accepts at most one argument, got %d", ErrTooManyArguments, name, len(args)))
	}

	text, given, numeric := "", len(args) == 1, false
	if given {
		if args[0].HasError() {
			return nil, m.unparseable(args[0])
		}

		text = stripQuotes(m.tree.Text(args[0]))
		numeric = args[0].Start.Type == tokenizer.NUMBER
	}

	switch name {
	case "ObjectId":
		if !given {
			return map[string]any{"$oid": primitive.NewObjectIDFromTimestamp(m.now()).Hex()}, nil
		}

		id, err := primitive.ObjectIDFromHex(text)
		if err != nil {
			return nil, m.fail(n, fmt.Errorf("%w '%s': %s", ErrInvalidObjectID, text, err))
		}

		return map[string]any{"$oid": id.Hex()}, nil
	case "ISODate":
		t := m.now()

		if given {
			if !strings.HasSuffix(text, "Z") {
				text += "Z"
			}

			parsed, err := parseDate(text)
			if err != nil {
				return nil, m.fail(n, err)
			}

			t = parsed
		}

		return map[string]any{"$date": t.UTC().Format(isoDateLayout)}, nil
	default:
		t := m.now()

		if given && numeric {
			ms, err := strconv.ParseFloat(text, 64)
			if err != nil || math.IsNaN(ms) || math.Abs(ms) > maxDateMillis {
				return nil, m.fail(n, fmt.Errorf("%w '%s'", ErrInvalidDate, text))
			}

			t = time.UnixMilli(int64(ms))
		} else if given {
			parsed, err := parseDate(text)
			if err != nil {
				return nil, m.fail(n, err)
			}

			t = parsed
		}

		return map[string]any{"$date": t.UTC().Format(dateLayout)}, nil
	}
}

// parseDate accepts ISO-8601 date-times and a few common textual layouts.
// Times without a zone are UTC.
func parseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("%w ''", ErrInvalidDate)
	}

	if dt, err := strfmt.ParseDateTime(text); err == nil {
		return time.Time(dt).UTC(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w '%s'", ErrInvalidDate, text)
}

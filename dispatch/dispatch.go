package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shibukawa/scrapbook/command"
	"go.mongodb.org/mongo-driver/bson"
)

// date layouts produced by ISODate() and Date()
var dateLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

const extJSONDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Operation is a command ready for a MongoDB driver call.
type Operation struct {
	ID         string        `json:"id"`
	Collection string        `json:"collection,omitempty"`
	Method     string        `json:"method"`
	Kind       Kind          `json:"kind"`
	Chained    bool          `json:"chained,omitempty"`
	Range      command.Range `json:"range"`

	// Arguments holds BSON values: bson.D for documents, bson.A for arrays,
	// primitive types for ObjectId, dates and regular expressions.
	Arguments []any `json:"-"`
}

// ExtJSON renders the operation as relaxed MongoDB Extended JSON.
func (o *Operation) ExtJSON() (string, error) {
	doc := bson.D{
		{Key: "id", Value: o.ID},
		{Key: "collection", Value: o.Collection},
		{Key: "method", Value: o.Method},
		{Key: "kind", Value: string(o.Kind)},
		{Key: "arguments", Value: bson.A(o.Arguments)},
	}

	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", fmt.Errorf("failed to render operation: %w", err)
	}

	return string(data), nil
}

// Options controls planning and execution.
type Options struct {
	// AllowUnknown plans methods missing from the method table.
	AllowUnknown bool
	// AllowDangerous plans drops and unfiltered multi-document writes.
	AllowDangerous bool
	// Timeout bounds each Execute call. Zero means no timeout.
	Timeout time.Duration

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.New(slog.DiscardHandler)
}

// Plan converts a command into an operation. Commands carrying errors and
// commands without a function call are refused.
func Plan(cmd *command.Command, options Options) (*Operation, error) {
	if cmd.HasErrors() {
		return nil, fmt.Errorf("%w: %d error(s) at %s", ErrCommandHasErrors, len(cmd.Errors), cmd.Range.Start)
	}

	if cmd.Name == "" {
		return nil, fmt.Errorf("%w at %s", ErrNoOperation, cmd.Range.Start)
	}

	kind := KindOf(cmd.Name)
	if kind == KindUnknown && !options.AllowUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, cmd.Name)
	}

	arguments := make([]any, 0, len(cmd.ArgumentObjects))

	for i, argument := range cmd.ArgumentObjects {
		value, err := toBSON(argument)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d of %s: %w", ErrArgumentConversion, i+1, cmd.Name, err)
		}

		arguments = append(arguments, value)
	}

	if !options.AllowDangerous && isDangerous(cmd.Name, arguments) {
		return nil, fmt.Errorf("%w: %s without a filter. Allow dangerous operations to run it anyway", ErrDangerousOperation, cmd.Name)
	}

	op := &Operation{
		ID:         uuid.NewString(),
		Collection: cmd.Collection,
		Method:     cmd.Name,
		Kind:       kind,
		Chained:    cmd.Chained,
		Range:      cmd.Range,
		Arguments:  arguments,
	}

	options.logger().Debug("planned operation", "id", op.ID, "collection", op.Collection, "method", op.Method, "kind", op.Kind)

	return op, nil
}

// isDangerous reports drops and multi-document writes whose filter is missing or empty.
func isDangerous(method string, arguments []any) bool {
	if destructive[method] {
		return true
	}

	if !filterFirst[method] {
		return false
	}

	if len(arguments) == 0 {
		return true
	}

	filter, ok := arguments[0].(bson.D)

	return ok && len(filter) == 0
}

// toBSON converts a materialized value through relaxed Extended JSON, so
// $oid, $date and $regex documents become BSON ObjectIds, dates and regular expressions.
func toBSON(value any) (any, error) {
	data, err := json.Marshal(map[string]any{"v": normalize(value)})
	if err != nil {
		return nil, err
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, err
	}

	return doc[0].Value, nil
}

// normalize rewrites $date strings into the ISO-8601 form Extended JSON
// accepts and $regex documents into $regularExpression with BSON options.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if text, ok := v["$date"].(string); ok && len(v) == 1 {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, text); err == nil {
					return map[string]any{"$date": t.UTC().Format(extJSONDateLayout)}
				}
			}
		}

		pattern, isRegex := v["$regex"].(string)
		flags, hasOptions := v["$options"].(string)

		if isRegex && hasOptions && len(v) == 2 {
			return map[string]any{"$regularExpression": map[string]any{
				"pattern": pattern,
				"options": bsonRegexOptions(flags),
			}}
		}

		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = normalize(item)
		}

		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = normalize(item)
		}

		return result
	default:
		return value
	}
}

// bsonRegexOptions keeps the flags BSON regular expressions know, sorted.
func bsonRegexOptions(flags string) string {
	var options []rune

	for _, flag := range flags {
		if strings.ContainsRune("imsux", flag) && !slices.Contains(options, flag) {
			options = append(options, flag)
		}
	}

	slices.Sort(options)

	return string(options)
}

package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

var ErrUnknownTopic = errors.New("unknown event topic")

type Cause string

const (
	CauseMissing Cause = "missing"
	CauseNull    Cause = "null"
	CauseType    Cause = "type"
	CauseEnum    Cause = "enum"
	CauseInvalid Cause = "invalid"
)

type Violation struct {
	// Path is the dotted property path, nested records are prefixed with their parent (function.type).
	Path   string
	Cause  Cause
	Reason string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Reason
	}

	return fmt.Sprintf("%s %s", v.Path, v.Reason)
}

type ValidationError struct {
	Topic      Topic
	Violations []Violation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s event: %s", e.Topic, e.Summary())
}

// Summary lists every violation in a single human readable line.
func (e *ValidationError) Summary() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}

	return strings.Join(parts, "; ")
}

// TopicOf returns the discriminant of a decoded record, empty when it is absent or not a string.
func TopicOf(record map[string]any) Topic {
	topic, _ := record["topic"].(string)

	return Topic(topic)
}

// Parse dispatches on the record's topic and validates it against that topic's shape.
func Parse(record map[string]any) (Event, error) {
	switch topic := TopicOf(record); topic {
	case TopicVerification:
		return ValidateVerification(record)
	case TopicConsole:
		return ValidateConsole(record)
	case TopicFunctionExecution:
		return ValidateFunctionExecution(record)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
}

func ValidateVerification(record map[string]any) (*VerificationEvent, error) {
	return validate[VerificationEvent](TopicVerification, record)
}

func ValidateConsole(record map[string]any) (*ConsoleEvent, error) {
	return validate[ConsoleEvent](TopicConsole, record)
}

func ValidateFunctionExecution(record map[string]any) (*FunctionExecutionEvent, error) {
	return validate[FunctionExecutionEvent](TopicFunctionExecution, record)
}

func validate[T any](topic Topic, record map[string]any) (*T, error) {
	if violations := check(schemas[topic], record); len(violations) > 0 {
		return nil, &ValidationError{Topic: topic, Violations: violations}
	}

	// The record already matches the schema, so the round trip only converts it into the typed value.
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("error encoding %s event: %w", topic, err)
	}

	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("error decoding %s event: %w", topic, err)
	}

	return &event, nil
}

func check(schema *openapi3.Schema, record map[string]any) []Violation {
	err := schema.VisitJSON(record, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var violations []Violation
	collect(err, &violations)

	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Path < violations[j].Path
	})

	return violations
}

func collect(err error, violations *[]Violation) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			collect(e, violations)
		}

		return
	}

	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		*violations = append(*violations, Violation{Cause: CauseInvalid, Reason: err.Error()})

		return
	}

	*violations = append(*violations, toViolation(schemaErr))
}

func toViolation(err *openapi3.SchemaError) Violation {
	v := Violation{
		Path:   strings.Join(err.JSONPointer(), "."),
		Reason: err.Reason,
	}

	switch err.SchemaField {
	case "required":
		v.Cause = CauseMissing
		v.Reason = "is missing"
	case "nullable":
		v.Cause = CauseNull
		v.Reason = "must not be null"
	case "type":
		v.Cause = CauseType
	case "enum":
		// Enum fields are checked before type and nullability, so both surface here.
		switch err.Value.(type) {
		case nil:
			v.Cause = CauseNull
			v.Reason = "must not be null"
		case string:
			v.Cause = CauseEnum
		default:
			v.Cause = CauseType
			v.Reason = "must be a string"
		}
	default:
		v.Cause = CauseInvalid
	}

	return v
}

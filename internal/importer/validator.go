package importer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

//go:embed schema/seed.schema.json
var schemaBytes []byte

const schemaURL = "seed.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// Issue is one schema violation in a seed file.
type Issue struct {
	Path    string // instance location, e.g. "/records/tickets/0/title"
	Keyword string // failing schema keyword
	Message string
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks raw YAML against the seed schema. Malformed YAML and
// schema violations are reported as *types.ValidationError values joined
// with errors.Join; other errors mean the schema itself could not load.
func Validate(data []byte) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &types.ValidationError{Field: "seed", Reason: "parsing YAML: " + err.Error()}
	}
	if raw == nil {
		return &types.ValidationError{Field: "seed", Reason: "file is empty"}
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return &types.ValidationError{Field: "seed", Reason: "converting to JSON: " + err.Error()}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("unexpected validation error type: %w", err)
	}

	var errs []error
	for _, is := range extractIssues(ve) {
		field := is.Path
		if field == "" {
			field = "seed"
		}
		errs = append(errs, &types.ValidationError{Field: field, Reason: is.Message})
	}
	return errors.Join(errs...)
}

// extractIssues returns the leaf errors of the validation tree, without
// duplicates.
func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}

	seen := make(map[string]bool)
	out := issues[:0]
	for _, is := range issues {
		key := is.Path + "|" + is.Keyword + "|" + is.Message
		if !seen[key] {
			seen[key] = true
			out = append(out, is)
		}
	}
	return out
}

func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}

	var keyword, msg string
	if ve.ErrorKind != nil {
		if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
			keyword = kw[len(kw)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	if keyword == "allOf" || keyword == "$ref" || keyword == "" {
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	*issues = append(*issues, Issue{Path: path, Keyword: keyword, Message: msg})
}

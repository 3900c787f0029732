package httpio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/de-tools/bacc-research/pkg/models/api"
)

const (
	maxBodyBytes = 1 << 20
	rootField    = "(root)"

	NoDataMessage = "No data available"
)

var (
	ErrInvalidBody  = errors.New("request body is not valid JSON")
	ErrBodyTooLarge = errors.New("request body too large")
)

// ValidationError lists every schema violation of a request body.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Schema is a compiled JSON schema for one request shape.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustSchema compiles a schema literal and panics on malformed input.
func MustSchema(source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return &Schema{schema: s}
}

// Decode reads the body, validates it against schema and unmarshals it into v.
func Decode(r *http.Request, schema *Schema, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return ErrBodyTooLarge
	}
	if !json.Valid(body) {
		return ErrInvalidBody
	}

	result, err := schema.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			if desc.Field() == rootField {
				problems = append(problems, desc.Description())
				continue
			}
			problems = append(problems, desc.Field()+": "+desc.Description())
		}
		return &ValidationError{Problems: problems}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// Error writes an api.ErrorResponse.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, api.ErrorResponse{Error: msg})
}

// CSV buffers the output of write and sends it as an attachment. Nothing is
// sent until write succeeds, so a failure still yields a clean 500.
func CSV(w http.ResponseWriter, r *http.Request, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("file", filename).Msg("failed to build csv export")
		Error(w, r, http.StatusInternalServerError, "Failed to export data")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("file", filename).Msg("failed to write csv export")
	}
}

// NonNil turns a nil slice into an empty one so it encodes as [].
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

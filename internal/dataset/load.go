package dataset

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/georeplay/internal/geo"
	"github.com/roach88/georeplay/internal/replay"
)

//go:embed schema.cue
var schemaCUE string

// Format is a dataset file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".cue":
		return FormatCUE, true
	}
	return "", false
}

type options struct {
	level int
}

// Option configures Load and Parse.
type Option func(*options)

// WithGridLevel sets the S2 level for derived cell indices.
func WithGridLevel(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// Load reads the dataset at path. Errors are *LoadError.
func Load(path string, opts ...Option) (replay.DataSource, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return replay.DataSource{}, &LoadError{
			Code:    ErrCodeFormat,
			Path:    path,
			Message: fmt.Sprintf("unsupported extension %q (want .yaml, .yml or .cue)", filepath.Ext(path)),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return replay.DataSource{}, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error(), Err: err}
	}

	ds, err := Parse(data, format, opts...)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return replay.DataSource{}, err
	}
	return ds, nil
}

// Parse decodes data in the given format. Errors are *LoadError.
func Parse(data []byte, format Format, opts ...Option) (replay.DataSource, error) {
	o := options{level: geo.DefaultLevel}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		f   *File
		err error
	)
	switch format {
	case FormatYAML:
		f, err = decodeYAML(data)
	case FormatCUE:
		f, err = decodeCUE(data)
	default:
		return replay.DataSource{}, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil {
		return replay.DataSource{}, err
	}

	ds, err := f.DataSource(o.level)
	if err != nil {
		return replay.DataSource{}, &LoadError{Code: ErrCodeInvalidData, Message: err.Error(), Err: err}
	}
	return ds, nil
}

func decodeYAML(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("failed to parse YAML: %v", err), Err: err}
	}
	return &f, nil
}

func decodeCUE(data []byte) (*File, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: cueerrors.Details(err, nil), Err: err}
	}

	v := ctx.CompileBytes(data, cue.Filename("dataset.cue"))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: cueerrors.Details(err, nil), Err: err}
	}

	v = schema.LookupPath(cue.ParsePath("#Dataset")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: cueerrors.Details(err, nil), Err: err}
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: err.Error(), Err: err}
	}
	return &f, nil
}

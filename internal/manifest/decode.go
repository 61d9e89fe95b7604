package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"layoutcalc/internal/diag"
)

// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported descriptor format (expected .toml, .yaml or .yml)")

// ErrSyntax wraps every decoder failure.
var ErrSyntax = errors.New("descriptor syntax error")

func decodeTOML(path string, data []byte, r diag.Reporter) (rawFile, error) {
	var raw rawFile
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return rawFile{}, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	for _, key := range meta.Undecoded() {
		diag.ReportWarning(r, diag.ManUnknownKey, diag.Location{File: path},
			fmt.Sprintf("unknown key %s", key.String()))
	}
	return raw, nil
}

// decodeYAML decodes leniently, then strictly to surface unknown keys as warnings.
func decodeYAML(path string, data []byte, r diag.Reporter) (rawFile, error) {
	var raw rawFile
	if err := yamlDecode(data, &raw, false); err != nil {
		return rawFile{}, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	var strict rawFile
	if err := yamlDecode(data, &strict, true); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			for _, msg := range typeErr.Errors {
				diag.ReportWarning(r, diag.ManUnknownKey, diag.Location{File: path}, strings.TrimSpace(msg))
			}
		} else {
			diag.ReportWarning(r, diag.ManUnknownKey, diag.Location{File: path}, err.Error())
		}
	}
	return raw, nil
}

func yamlDecode(data []byte, out *rawFile, knownFields bool) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(knownFields)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

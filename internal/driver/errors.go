package driver

import (
	"errors"
	"fmt"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/layout"
)

var layoutCodes = map[layout.LayoutErrorKind]diag.Code{
	layout.LayoutErrInvalidDescriptor: diag.LayInvalidDescriptor,
	layout.LayoutErrRecursiveUnsized:  diag.LayRecursiveUnsized,
	layout.LayoutErrUnknownType:       diag.LayUnknownType,
	layout.LayoutErrUnsized:           diag.LayUnsized,
	layout.LayoutErrLengthConversion:  diag.LayLengthConversion,
}

// layoutDiagnostic converts an error from laying out root into a diagnostic.
func layoutDiagnostic(path, root string, err error) diag.Diagnostic {
	loc := diag.Location{File: path, Type: root}
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) {
		return diag.NewError(diag.UnknownCode, loc, err.Error())
	}
	code, ok := layoutCodes[lerr.Kind]
	if !ok {
		code = diag.UnknownCode
	}
	if lerr.Type == "" || lerr.Type == root {
		loc.Field = lerr.Field
	}
	d := diag.NewError(code, loc, lerr.Error())
	if lerr.Type != "" && lerr.Type != root {
		d = d.WithNote(fmt.Sprintf("while laying out %s, which contains %s", root, lerr.Type))
	}
	switch lerr.Kind {
	case layout.LayoutErrRecursiveUnsized, layout.LayoutErrUnsized:
		d = d.WithNote("place the value behind a pointer or reference")
	}
	return d
}

func reportLayoutError(r diag.Reporter, path, root string, err error) {
	if r == nil {
		return
	}
	r.Report(layoutDiagnostic(path, root, err))
}

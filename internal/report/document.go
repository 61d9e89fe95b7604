package report

import (
	"layoutcalc/internal/diag"
	"layoutcalc/internal/driver"
	"layoutcalc/internal/layout"
)

// Document is the serialisable view of a run, shared by the JSON and
// msgpack renderers.
type Document struct {
	RunID       string     `json:"run_id" msgpack:"run_id"`
	Files       []FileDoc  `json:"files" msgpack:"files"`
	Diagnostics []DiagDoc  `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Summary     SummaryDoc `json:"summary" msgpack:"summary"`
}

type SummaryDoc struct {
	Files    int `json:"files" msgpack:"files"`
	Types    int `json:"types" msgpack:"types"`
	Errors   int `json:"errors" msgpack:"errors"`
	Warnings int `json:"warnings" msgpack:"warnings"`
	Cached   int `json:"cached" msgpack:"cached"`
}

type FileDoc struct {
	Path   string    `json:"path" msgpack:"path"`
	Target string    `json:"target,omitempty" msgpack:"target,omitempty"`
	Cached bool      `json:"cached,omitempty" msgpack:"cached,omitempty"`
	Types  []TypeDoc `json:"types" msgpack:"types"`
}

type TypeDoc struct {
	Name     string      `json:"name" msgpack:"name"`
	Kind     string      `json:"kind" msgpack:"kind"`
	Strategy string      `json:"strategy" msgpack:"strategy"`
	Size     int         `json:"size" msgpack:"size"`
	Align    int         `json:"align" msgpack:"align"`
	Padding  int         `json:"padding" msgpack:"padding"`
	Packed   bool        `json:"packed,omitempty" msgpack:"packed,omitempty"`
	Fields   []MemberDoc `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Variants []MemberDoc `json:"variants,omitempty" msgpack:"variants,omitempty"`
	Tag      *TagDoc     `json:"tag,omitempty" msgpack:"tag,omitempty"`
	Payload  *RegionDoc  `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

type MemberDoc struct {
	Name   string `json:"name,omitempty" msgpack:"name,omitempty"`
	Size   int    `json:"size" msgpack:"size"`
	Align  int    `json:"align" msgpack:"align"`
	Offset *int   `json:"offset,omitempty" msgpack:"offset,omitempty"`
}

type TagDoc struct {
	Size   int `json:"size" msgpack:"size"`
	Align  int `json:"align" msgpack:"align"`
	Offset int `json:"offset" msgpack:"offset"`
}

type RegionDoc struct {
	Offset int `json:"offset" msgpack:"offset"`
	Size   int `json:"size" msgpack:"size"`
	Align  int `json:"align" msgpack:"align"`
}

type DiagDoc struct {
	Severity string   `json:"severity" msgpack:"severity"`
	Code     string   `json:"code" msgpack:"code"`
	File     string   `json:"file,omitempty" msgpack:"file,omitempty"`
	Type     string   `json:"type,omitempty" msgpack:"type,omitempty"`
	Field    string   `json:"field,omitempty" msgpack:"field,omitempty"`
	Message  string   `json:"message" msgpack:"message"`
	Notes    []string `json:"notes,omitempty" msgpack:"notes,omitempty"`
}

// Build converts a driver result into a Document.
func Build(res *driver.Result) Document {
	doc := Document{}
	if res == nil {
		return doc
	}
	doc.RunID = res.RunID
	doc.Files = make([]FileDoc, 0, len(res.Files))
	for i := range res.Files {
		fr := &res.Files[i]
		fd := FileDoc{Path: fr.Path, Target: fr.Target, Cached: fr.Cached, Types: make([]TypeDoc, 0, len(fr.Types))}
		for _, tl := range fr.Types {
			fd.Types = append(fd.Types, typeDoc(tl))
		}
		doc.Summary.Types += len(fd.Types)
		if fr.Cached {
			doc.Summary.Cached++
		}
		doc.Files = append(doc.Files, fd)
	}
	doc.Summary.Files = len(doc.Files)

	bag := res.Diagnostics()
	for _, d := range bag.Items() {
		doc.Diagnostics = append(doc.Diagnostics, diagDoc(d))
		switch d.Severity {
		case diag.SevError:
			doc.Summary.Errors++
		case diag.SevWarning:
			doc.Summary.Warnings++
		}
	}
	return doc
}

func typeDoc(tl driver.TypeLayout) TypeDoc {
	l := tl.Layout
	td := TypeDoc{
		Name:     tl.Name,
		Kind:     tl.Kind.String(),
		Strategy: tl.Strategy.String(),
		Size:     l.Size,
		Align:    l.Align,
		Padding:  l.Padding(tl.Desc),
		Packed:   tl.Desc.Packed,
	}
	switch tl.Kind {
	case layout.KindStruct:
		td.Fields = make([]MemberDoc, 0, len(tl.Desc.Fields))
		for i, f := range tl.Desc.Fields {
			m := MemberDoc{Name: f.Name, Size: f.Size, Align: f.Align}
			if i < len(l.FieldOffsets) {
				off := l.FieldOffsets[i]
				m.Offset = &off
			}
			if i < len(l.FieldAligns) {
				m.Align = l.FieldAligns[i]
			}
			td.Fields = append(td.Fields, m)
		}
	case layout.KindTaggedUnion:
		td.Variants = make([]MemberDoc, 0, len(tl.Desc.Variants))
		for _, v := range tl.Desc.Variants {
			td.Variants = append(td.Variants, MemberDoc{Name: v.Name, Size: v.Size, Align: v.Align})
		}
		if l.Tagged {
			td.Tag = &TagDoc{Size: l.TagSize, Align: l.TagAlign, Offset: l.TagOffset}
		}
		td.Payload = &RegionDoc{Offset: l.PayloadOffset, Size: l.PayloadSize, Align: l.PayloadAlign}
	}
	return td
}

func diagDoc(d diag.Diagnostic) DiagDoc {
	dd := DiagDoc{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		File:     d.Primary.File,
		Type:     d.Primary.Type,
		Field:    d.Primary.Field,
		Message:  d.Message,
	}
	for _, n := range d.Notes {
		dd.Notes = append(dd.Notes, n.Msg)
	}
	return dd
}

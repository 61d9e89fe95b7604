package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Descriptor files
	ManInfo            Code = 1000
	ManSyntax          Code = 1001
	ManUnknownKey      Code = 1002
	ManDuplicateType   Code = 1003
	ManBadTypeExpr     Code = 1004
	ManBadRepr         Code = 1005
	ManBadKind         Code = 1006
	ManUnknownTarget   Code = 1007
	ManUndeclaredType  Code = 1008
	ManBadAlign        Code = 1009
	ManUnsupportedFile Code = 1010
	ManDuplicateMember Code = 1011

	// Layout computation
	LayInfo              Code = 2000
	LayInvalidDescriptor Code = 2001
	LayRecursiveUnsized  Code = 2002
	LayUnknownType       Code = 2003
	LayUnsized           Code = 2004
	LayLengthConversion  Code = 2005

	IOLoadFileError Code = 3001
	IOWriteError    Code = 3002
	IOCacheError    Code = 3003

	ObsInfo    Code = 4000
	ObsTimings Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	ManInfo:              "Descriptor information",
	ManSyntax:            "Descriptor syntax error",
	ManUnknownKey:        "Unknown descriptor key",
	ManDuplicateType:     "Duplicate type declaration",
	ManBadTypeExpr:       "Malformed type expression",
	ManBadRepr:           "Unknown repr",
	ManBadKind:           "Unknown declaration kind",
	ManUnknownTarget:     "Unknown target triple",
	ManUndeclaredType:    "Reference to undeclared type",
	ManBadAlign:          "Invalid alignment attribute",
	ManUnsupportedFile:   "Unsupported descriptor format",
	ManDuplicateMember:   "Duplicate field or variant",
	LayInfo:              "Layout information",
	LayInvalidDescriptor: "Invalid layout descriptor",
	LayRecursiveUnsized:  "recursive value type has infinite size",
	LayUnknownType:       "Unknown type",
	LayUnsized:           "Unsized value",
	LayLengthConversion:  "Array length does not fit the target",
	IOLoadFileError:      "I/O load file error",
	IOWriteError:         "I/O write error",
	IOCacheError:         "Layout cache error",
	ObsInfo:              "Observability information",
	ObsTimings:           "Pipeline timings",
}

// codeFamilies maps each thousand of the code space to its ID prefix.
var codeFamilies = map[int]string{1: "MAN", 2: "LAY", 3: "IO", 4: "OBS"}

// ID is the stable short form printed in reports, e.g. LAY2002.
func (c Code) ID() string {
	if prefix, ok := codeFamilies[int(c)/1000]; ok {
		return fmt.Sprintf("%s%04d", prefix, int(c))
	}
	return "E0000"
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

package fuzztests

import (
	"testing"

	"layoutcalc/internal/types"
)

// FuzzParseExprRoundTrip checks that a parsed expression prints back to a
// form that parses to the same expression.
func FuzzParseExprRoundTrip(f *testing.F) {
	for _, s := range exprSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, src string) {
		if len(src) > maxFuzzInput {
			src = src[:maxFuzzInput]
		}
		e, err := types.ParseExpr(src)
		if err != nil {
			return
		}
		printed := e.String()
		again, err := types.ParseExpr(printed)
		if err != nil {
			t.Fatalf("%q printed as %q, which does not parse: %v", src, printed, err)
		}
		if again.String() != printed {
			t.Fatalf("%q: printing is not stable: %q then %q", src, printed, again.String())
		}
	})
}

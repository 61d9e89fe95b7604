package layout_test

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"layoutcalc/internal/layout"
	"layoutcalc/internal/testkit"
)

var strategies = []layout.Strategy{layout.StrategyDefault, layout.StrategySequential}

func randomField(r *rand.Rand) layout.FieldDescriptor {
	align := 1 << r.IntN(5) // 1..16
	return layout.FieldDescriptor{Size: align * r.IntN(5), Align: align}
}

func randomStruct(r *rand.Rand) layout.TypeDescriptor {
	fields := make([]layout.FieldDescriptor, r.IntN(8))
	for i := range fields {
		fields[i] = randomField(r)
	}
	return layout.Struct("", fields...)
}

func randomUnion(r *rand.Rand) layout.TypeDescriptor {
	variants := make([]layout.FieldDescriptor, 1+r.IntN(6))
	for i := range variants {
		variants[i] = randomField(r)
	}
	var discr *layout.FieldDescriptor
	if r.IntN(2) == 0 {
		size := 1 << r.IntN(3)
		discr = &layout.FieldDescriptor{Size: size, Align: size}
	}
	return layout.TaggedUnion("", discr, variants...)
}

func forEachRandom(t *testing.T, n int, fn func(t *testing.T, td layout.TypeDescriptor)) {
	t.Helper()
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < n; i++ {
		fn(t, randomStruct(r))
		fn(t, randomUnion(r))
	}
}

func TestLawSizeIsMultipleOfAlign(t *testing.T) {
	forEachRandom(t, 500, func(t *testing.T, td layout.TypeDescriptor) {
		for _, s := range strategies {
			res, err := layout.Compute(td, s)
			if err != nil {
				t.Fatalf("%s: unexpected error for %+v: %v", s, td, err)
			}
			if res.Align < 1 || res.Align&(res.Align-1) != 0 {
				t.Fatalf("%s: alignment %d is not a power of two", s, res.Align)
			}
			if res.Size%res.Align != 0 {
				t.Fatalf("%s: size %d is not a multiple of alignment %d for %+v", s, res.Size, res.Align, td)
			}
		}
	})
}

func TestLawStructAlignIsMaxFieldAlign(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 500; i++ {
		td := randomStruct(r)
		want := 1
		for _, f := range td.Fields {
			want = max(want, f.Align)
		}
		for _, s := range strategies {
			res, err := layout.Compute(td, s)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Align != want {
				t.Fatalf("%s: align = %d, want %d for %+v", s, res.Align, want, td)
			}
		}
	}
}

func TestLawFieldsNeverOverlapAndStayAligned(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 500; i++ {
		td := randomStruct(r)
		for _, s := range strategies {
			res, err := layout.Compute(td, s)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for a, fa := range td.Fields {
				offA := res.FieldOffsets[a]
				if offA%fa.Align != 0 {
					t.Fatalf("%s: field %d at %d is misaligned (align %d)", s, a, offA, fa.Align)
				}
				if offA+fa.Size > res.Size {
					t.Fatalf("%s: field %d ends past the type (%d > %d)", s, a, offA+fa.Size, res.Size)
				}
				for b := a + 1; b < len(td.Fields); b++ {
					fb := td.Fields[b]
					offB := res.FieldOffsets[b]
					if fa.Size == 0 || fb.Size == 0 {
						continue
					}
					if offA < offB+fb.Size && offB < offA+fa.Size {
						t.Fatalf("%s: fields %d and %d overlap: %v", s, a, b, res.FieldOffsets)
					}
				}
			}
		}
	}
}

func TestLawDefaultNeverLargerThanSequential(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 500; i++ {
		td := randomStruct(r)
		def, err := layout.ComputeDefaultLayout(td)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seq, err := layout.ComputeSequentialLayout(td)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if def.Size > seq.Size {
			t.Fatalf("default size %d exceeds sequential %d for %+v", def.Size, seq.Size, td)
		}
		sum := 0
		for _, f := range td.Fields {
			sum += f.Size
		}
		if def.Size < sum {
			t.Fatalf("default size %d is smaller than the sum of field sizes %d", def.Size, sum)
		}
	}
}

func TestLawStructuralInvariants(t *testing.T) {
	forEachRandom(t, 500, func(t *testing.T, td layout.TypeDescriptor) {
		for _, s := range strategies {
			res, err := layout.Compute(td, s)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", s, err)
			}
			if err := testkit.CheckLayoutInvariants(td, res); err != nil {
				t.Fatalf("%s: %v for %+v", s, err, td)
			}
		}
	})
}

func TestLawZeroSizedStruct(t *testing.T) {
	res, err := layout.ComputeSequentialLayout(layout.Struct(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Size != 0 || res.Align != 1 {
		t.Fatalf("got size=%d align=%d, want 0/1", res.Size, res.Align)
	}
}

func TestLawSingleVariantElision(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 10))
	for i := 0; i < 200; i++ {
		v := randomField(r)
		res, err := layout.ComputeDefaultLayout(layout.TaggedUnion("", nil, v))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Size != v.Size || res.Align != v.Align || res.Tagged {
			t.Fatalf("variant %+v: got %+v, want size %d align %d untagged", v, res, v.Size, v.Align)
		}
	}
}

func TestLawSequentialDeterminism(t *testing.T) {
	forEachRandom(t, 200, func(t *testing.T, td layout.TypeDescriptor) {
		first, err := layout.ComputeSequentialLayout(td)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := layout.ComputeSequentialLayout(td)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("sequential layout not reproducible (-first +second):\n%s", diff)
		}
	})
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	td := layout.Struct("S", layout.Field("a", 1, 1), layout.Field("b", 8, 8))
	before := layout.Struct("S", layout.Field("a", 1, 1), layout.Field("b", 8, 8))
	if _, err := layout.ComputeDefaultLayout(td); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(before, td); diff != "" {
		t.Fatalf("descriptor mutated (-before +after):\n%s", diff)
	}
}

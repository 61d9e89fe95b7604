package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 16 << 10
)

var exprSeeds = []string{
	"i32", "()", "B", "&str", "&'a str", "&mut B", "*const u8", "*mut B",
	"[usize; 3]", "[[u8; 4]; 1_000]", "&[u16]", "[u8]", "[u64; 18446744073709551615]",
	"", "&", "[u8; ]", "[; 3]", "*u8", "&&&&&&&&i8",
}

// addManifestSeeds adds every descriptor under the manifest testdata plus a
// few inline documents.
func addManifestSeeds(f *testing.F) {
	root := filepath.Join("..", "manifest", "testdata")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".toml" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src), ext == ".toml")
		return nil
	})
	f.Add([]byte{}, true)
	f.Add([]byte{}, false)
	f.Add([]byte("[[type]]\nname = \"S\"\nfields = [{ name = \"a\", type = \"S\" }]\n"), true)
	f.Add([]byte("type:\n  - name: E\n    variants: [{name: A}, {name: B, payload: [u8, u64]}]\n"), false)
}

func clampSeed(src []byte) []byte {
	if len(src) > maxSeedBytes {
		src = src[:maxSeedBytes]
	}
	return append([]byte(nil), src...)
}

package manifest

// rawFile mirrors the on-disk document before validation.
type rawFile struct {
	Target string    `toml:"target" yaml:"target"`
	Types  []rawType `toml:"type" yaml:"type"`
}

type rawType struct {
	Name     string       `toml:"name" yaml:"name"`
	Kind     string       `toml:"kind" yaml:"kind"`
	Repr     string       `toml:"repr" yaml:"repr"`
	Align    *int         `toml:"align" yaml:"align"`
	Packed   bool         `toml:"packed" yaml:"packed"`
	Tag      string       `toml:"tag" yaml:"tag"`
	Fields   []rawField   `toml:"fields" yaml:"fields"`
	Variants []rawVariant `toml:"variants" yaml:"variants"`
}

type rawField struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`
}

type rawVariant struct {
	Name    string   `toml:"name" yaml:"name"`
	Payload []string `toml:"payload" yaml:"payload"`
}

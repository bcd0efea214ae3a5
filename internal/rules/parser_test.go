package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patterns(t *testing.T, table *Table) []string {
	t.Helper()
	var out []string
	for _, r := range table.Rules() {
		out = append(out, r.Pattern)
	}
	return out
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]string{
		"rules.ini":      FormatKeyFile,
		"rules.conf":     FormatKeyFile,
		"rules.keyfile":  FormatKeyFile,
		"replacer":       FormatKeyFile,
		"rules.toml":     FormatTOML,
		"rules.YAML":     FormatYAML,
		"rules.yml":      FormatYAML,
		"dir/rules.cue":  FormatCUE,
		"rules.unknown":  FormatKeyFile,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectFormat(path), path)
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"cue", "keyfile", "toml", "yaml"}, Formats())
}

func TestLoadBytes_UnknownFormat(t *testing.T) {
	_, err := LoadBytes("x", []byte(""), "json")
	assert.Equal(t, ErrCodeUnknownFormat, CodeOf(err))
}

// Key file

func TestKeyFile_Basic(t *testing.T) {
	src := "# common typos\n" +
		"[replacer]\n" +
		"teh=the\n" +
		"  i_ = I \n" +
		"\n" +
		"recieve=receive\n"

	table, err := LoadBytes("rules.ini", []byte(src), FormatKeyFile)
	require.NoError(t, err)

	require.Equal(t, []string{"teh", "i_", "recieve"}, patterns(t, table))
	assert.Equal(t, "the", table.Rule(0).Replacement)
	assert.Equal(t, "I ", table.Rule(1).Replacement, "leading whitespace dropped, trailing kept")
	assert.Equal(t, "i ", table.Rule(1).Needle())
}

func TestKeyFile_OtherGroupsIgnored(t *testing.T) {
	src := "[other]\nfoo=bar\n[replacer]\na=b\n[more]\nc=d\n"
	table, err := LoadBytes("rules.ini", []byte(src), FormatKeyFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, patterns(t, table))
}

func TestKeyFile_ValueIsRaw(t *testing.T) {
	table, err := LoadBytes("rules.ini", []byte("[replacer]\nnl=a\\nb\n"), FormatKeyFile)
	require.NoError(t, err)
	assert.Equal(t, `a\nb`, table.Rule(0).Replacement)
}

func TestKeyFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"missing group", "[other]\na=b\n", ErrCodeMissingGroup},
		{"empty file", "", ErrCodeMissingGroup},
		{"key before group", "a=b\n[replacer]\n", ErrCodeParse},
		{"not a pair", "[replacer]\njunk\n", ErrCodeParse},
		{"bad header", "[replacer\na=b\n", ErrCodeParse},
		{"empty value", "[replacer]\nteh=\n", ErrCodeMissingValue},
		{"self contained", "[replacer]\na=ba\n", ErrCodeSelfContained},
		{"prefix", "[replacer]\nab=x\nabc=y\n", ErrCodePrefixCollision},
		{"duplicate", "[replacer]\na=x\na=y\n", ErrCodeDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("rules.ini", []byte(tt.src), FormatKeyFile)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), err.Error())
		})
	}
}

// TOML

func TestTOML_Basic(t *testing.T) {
	src := `
[replacer]
teh = "the"
"i_" = "I"
recieve = "receive"
`
	table, err := LoadBytes("rules.toml", []byte(src), "")
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, table.Format())
	assert.Equal(t, []string{"teh", "i_", "recieve"}, patterns(t, table))
	assert.Equal(t, "I", table.Rule(1).Replacement)
}

func TestTOML_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"missing group", "[other]\na = \"b\"\n", ErrCodeMissingGroup},
		{"not a table", "replacer = \"x\"\n", ErrCodeParse},
		{"syntax", "[replacer\n", ErrCodeParse},
		{"non-string value", "[replacer]\nn = 1\n", ErrCodeMissingValue},
		{"empty value", "[replacer]\nn = \"\"\n", ErrCodeMissingValue},
		{"self contained", "[replacer]\na = \"ba\"\n", ErrCodeSelfContained},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("rules.toml", []byte(tt.src), FormatTOML)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), err.Error())
		})
	}
}

// YAML

func TestYAML_Basic(t *testing.T) {
	src := `description: typos
replacer:
  teh: the
  "i ": "I "
  recieve: receive
`
	table, err := LoadBytes("rules.yaml", []byte(src), "")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, table.Format())
	assert.Equal(t, []string{"teh", "i ", "recieve"}, patterns(t, table))
}

func TestYAML_AllowsSelfContainment(t *testing.T) {
	table, err := LoadBytes("rules.yaml", []byte("replacer:\n  a: aa\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "aa", table.Rule(0).Replacement)
}

func TestYAML_ScalarValuesAreText(t *testing.T) {
	table, err := LoadBytes("rules.yaml", []byte("replacer:\n  one: 1\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "1", table.Rule(0).Replacement)
}

func TestYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"missing group", "other: {}\n", ErrCodeMissingGroup},
		{"empty document", "", ErrCodeMissingGroup},
		{"not a mapping", "replacer: [a, b]\n", ErrCodeParse},
		{"unknown top-level key", "replacer: {a: b}\nextra: 1\n", ErrCodeParse},
		{"syntax", "replacer: {a: b\n", ErrCodeParse},
		{"null value", "replacer:\n  teh:\n", ErrCodeMissingValue},
		{"nested value", "replacer:\n  teh: {x: y}\n", ErrCodeMissingValue},
		{"prefix", "replacer:\n  ab: x\n  abc: y\n", ErrCodePrefixCollision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("rules.yaml", []byte(tt.src), FormatYAML)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), err.Error())
		})
	}
}

// CUE

func TestCUE_Basic(t *testing.T) {
	src := `replacer: {
	teh:       "the"
	"i_":      "I"
	recieve:   "receive"
}
`
	table, err := LoadBytes("rules.cue", []byte(src), "")
	require.NoError(t, err)
	assert.Equal(t, FormatCUE, table.Format())
	assert.Equal(t, []string{"teh", "i_", "recieve"}, patterns(t, table))
}

func TestCUE_AllowsSelfContainment(t *testing.T) {
	_, err := LoadBytes("rules.cue", []byte(`replacer: a: "aa"`), FormatCUE)
	require.NoError(t, err)
}

func TestCUE_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"missing group", `other: a: "b"`, ErrCodeMissingGroup},
		{"syntax", `replacer: {`, ErrCodeParse},
		{"conflict", "replacer: a: \"x\"\nreplacer: a: \"y\"\n", ErrCodeParse},
		{"not a struct", `replacer: "x"`, ErrCodeParse},
		{"non-string value", `replacer: n: 1`, ErrCodeMissingValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("rules.cue", []byte(tt.src), FormatCUE)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), err.Error())
		})
	}
}

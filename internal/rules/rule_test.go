package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Needle(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"teh", "teh"},
		{"teh_", "teh "},
		{"a_b", "a_b"},
		{"x__", "x_ "},
		{"_", " "},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			r := Rule{Pattern: tt.pattern, Replacement: "r"}
			assert.Equal(t, tt.want, r.Needle())
			assert.Equal(t, tt.pattern, r.Pattern, "pattern must not be modified")
		})
	}
}

func TestNewTable_PreservesOrder(t *testing.T) {
	entries := []Entry{
		{Pattern: "zeta", Value: "Z"},
		{Pattern: "alpha", Value: "A"},
		{Pattern: "mid", Value: "M"},
	}
	table, err := NewTable("mem", FormatKeyFile, entries, true)
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, "zeta", table.Rule(0).Pattern)
	assert.Equal(t, "alpha", table.Rule(1).Pattern)
	assert.Equal(t, "mid", table.Rule(2).Pattern)
	assert.Equal(t, "mem", table.Source())
	assert.Equal(t, FormatKeyFile, table.Format())
}

func TestNewTable_RulesReturnsCopy(t *testing.T) {
	table, err := NewTable("mem", FormatKeyFile, []Entry{{Pattern: "a", Value: "b"}}, true)
	require.NoError(t, err)

	rules := table.Rules()
	rules[0].Replacement = "mutated"
	assert.Equal(t, "b", table.Rule(0).Replacement)
}

func TestNewTable_Empty(t *testing.T) {
	table, err := NewTable("mem", FormatKeyFile, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestNewTable_ErrorCarriesSource(t *testing.T) {
	_, err := NewTable("rules.ini", FormatKeyFile, []Entry{{Pattern: "a", Value: ""}}, true)
	require.Error(t, err)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "rules.ini", ce.Source)
	assert.Equal(t, ErrCodeMissingValue, ce.Code)
	assert.Equal(t, "a", ce.Pattern)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestValidate_MissingValue(t *testing.T) {
	errs := Validate([]Entry{{Pattern: "teh", Value: ""}}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeMissingValue, errs[0].Code)
	assert.Equal(t, "teh", errs[0].Pattern)
}

func TestValidate_UnreadableValue(t *testing.T) {
	errs := Validate([]Entry{{Pattern: "n", Err: assert.AnError}}, false)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeMissingValue, errs[0].Code)
	assert.ErrorIs(t, errs[0], assert.AnError)
}

func TestValidate_EmptyPattern(t *testing.T) {
	errs := Validate([]Entry{{Pattern: "", Value: "x"}}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeEmptyPattern, errs[0].Code)
}

func TestValidate_Duplicate(t *testing.T) {
	errs := Validate([]Entry{
		{Pattern: "a", Value: "x"},
		{Pattern: "a", Value: "y"},
	}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeDuplicate, errs[0].Code)
}

func TestValidate_PrefixCollision(t *testing.T) {
	tests := []struct {
		name        string
		entries     []Entry
		wantPattern string
		wantOther   string
	}{
		{
			name:        "shorter first",
			entries:     []Entry{{Pattern: "ab", Value: "x"}, {Pattern: "abc", Value: "y"}},
			wantPattern: "ab",
			wantOther:   "abc",
		},
		{
			name:        "shorter last",
			entries:     []Entry{{Pattern: "abc", Value: "y"}, {Pattern: "ab", Value: "x"}},
			wantPattern: "ab",
			wantOther:   "abc",
		},
		{
			name:        "separator form",
			entries:     []Entry{{Pattern: "teh", Value: "the"}, {Pattern: "teh_", Value: "the "}},
			wantPattern: "teh",
			wantOther:   "teh_",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.entries, true)
			require.Len(t, errs, 1)
			assert.Equal(t, ErrCodePrefixCollision, errs[0].Code)
			assert.Equal(t, tt.wantPattern, errs[0].Pattern)
			assert.Equal(t, tt.wantOther, errs[0].Other)
			assert.Contains(t, errs[0].Message, "separator")
		})
	}
}

func TestValidate_SeparatorDisambiguates(t *testing.T) {
	errs := Validate([]Entry{
		{Pattern: "a_", Value: "A "},
		{Pattern: "ab", Value: "AB"},
	}, true)
	assert.Empty(t, errs)
}

func TestValidate_SelfContainment(t *testing.T) {
	entries := []Entry{{Pattern: "a", Value: "aa"}}

	errs := Validate(entries, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeSelfContained, errs[0].Code)
	assert.Contains(t, errs[0].Message, "recursive key")

	assert.Empty(t, Validate(entries, false))
}

func TestValidate_SelfContainmentUsesNeedle(t *testing.T) {
	// "x_" scans for "x "; a replacement holding "x_" literally is fine
	assert.Empty(t, Validate([]Entry{{Pattern: "x_", Value: "x_y"}}, true))

	errs := Validate([]Entry{{Pattern: "x_", Value: "x y"}}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeSelfContained, errs[0].Code)
}

func TestValidate_StageOrder(t *testing.T) {
	// A missing value is reported before a prefix collision
	errs := Validate([]Entry{
		{Pattern: "ab", Value: ""},
		{Pattern: "abc", Value: "x"},
	}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeMissingValue, errs[0].Code)

	// A prefix collision is reported before self-containment
	errs = Validate([]Entry{
		{Pattern: "a", Value: "a"},
		{Pattern: "ab", Value: "x"},
	}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodePrefixCollision, errs[0].Code)
}

func TestFromRules(t *testing.T) {
	table, err := FromRules("inline", []Rule{{Pattern: "teh", Replacement: "the"}})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = FromRules("inline", []Rule{{Pattern: "a", Replacement: "ba"}})
	assert.Equal(t, ErrCodeSelfContained, CodeOf(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, "", CodeOf(assert.AnError))
	assert.False(t, IsConfigError(assert.AnError))

	err := &ConfigError{Code: ErrCodeParse, Message: "bad"}
	assert.Equal(t, ErrCodeParse, CodeOf(err))
	assert.True(t, IsConfigError(err))
	assert.Equal(t, "E202: bad", err.Error())
}

package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roiken/tempoval/internal/model"
)

// TestLoadDomain_Logistics tests loading the full logistics domain
// document.
func TestLoadDomain_Logistics(t *testing.T) {
	d, err := LoadDomain("testdata/logistics.cue")
	require.NoError(t, err)

	assert.Equal(t, "logistics", d.Name())
	assert.True(t, d.HasType("robot"))
	assert.True(t, d.HasType("treatment"))

	o, ok := d.Object("r0")
	require.True(t, ok)
	assert.Equal(t, "robot", o.Type)
	assert.Equal(t, []string{"p0", "p1"}, d.ObjectsOfType("position"))

	sig, ok := d.Fluent("battery_level")
	require.True(t, ok)
	assert.Equal(t, model.KindInt, sig.Kind)
	assert.Equal(t, []string{"robot"}, sig.Params)

	move, ok := d.Template("move")
	require.True(t, ok)
	require.Len(t, move.Clauses, 4)
	assert.Equal(t, model.ClauseCondition, move.Clauses[0].Kind)
	assert.Equal(t, "robot_at(?r,?from)", move.Clauses[0].Fluent.String())
	assert.Equal(t, model.ClauseEffect, move.Clauses[3].Kind)
	assert.Equal(t, model.Delta{Amount: -1}, move.Clauses[3].Expr)

	treatment, ok := d.Template("make_treatment")
	require.True(t, ok)
	assert.Equal(t, "start+10", treatment.Clauses[2].Offset.String())
	assert.Equal(t, "end", treatment.Clauses[3].Offset.String())
}

// TestLoadDomain_OffsetOutsideDuration tests that the document's schedule
// checks run at load time.
func TestLoadDomain_OffsetOutsideDuration(t *testing.T) {
	_, err := LoadDomain("testdata/bad_offset.cue")
	require.Error(t, err)
	assert.True(t, model.IsMalformedTemplate(err))
}

// TestLoadDomain_MissingFile tests the error path for absent documents.
func TestLoadDomain_MissingFile(t *testing.T) {
	_, err := LoadDomain("testdata/absent.cue")
	assert.Error(t, err)
}

// TestParseOffset tests the offset grammar.
func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"start", "start", false},
		{"end", "end", false},
		{"start+10", "start+10", false},
		{"start+0", "start", false},
		{"middle", "", true},
		{"start+", "", true},
		{"start+x", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			off, err := parseOffset(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, off.String())
		})
	}
}

// TestIdent_Normalization tests NFC canonicalization at the load
// boundary: decomposed and precomposed spellings of the same identifier
// become one name.
func TestIdent_Normalization(t *testing.T) {
	precomposed := "café"      // é as one code point
	decomposed := "cafe\u0301" // e followed by combining acute
	assert.Equal(t, ident(precomposed), ident(decomposed))
	assert.Equal(t, "plain", ident("plain"))
}

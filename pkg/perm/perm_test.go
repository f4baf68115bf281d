package perm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	for _, s := range Scopes() {
		parsed, err := ParseScope(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseScope("ENVIRONMENT")
	assert.Error(t, err)
}

func TestParseAction_RejectsUnknownSymbol(t *testing.T) {
	for _, b := range []byte{'C', 'R', 'U', 'D'} {
		_, err := ParseAction(b)
		assert.NoError(t, err)
	}
	for _, b := range []byte{'X', 'c', ' ', 0} {
		_, err := ParseAction(b)
		assert.Error(t, err, "symbol %q", string(b))
	}
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := Table{"DOCUMENTATION": {ActionRead}}
	clone := orig.Clone()
	clone["DOCUMENTATION"] = append(clone["DOCUMENTATION"], ActionUpdate)
	clone["PLAN"] = []Action{ActionCreate}

	assert.Equal(t, []Action{ActionRead}, orig["DOCUMENTATION"])
	assert.NotContains(t, orig, "PLAN")
}

func TestTable_MergeIsUnion(t *testing.T) {
	direct := Table{"DOCUMENTATION": {ActionRead}}
	group := Table{
		"DOCUMENTATION": {ActionUpdate, ActionRead},
		"PLAN":          {ActionCreate},
	}

	merged := direct.Clone()
	merged.Merge(group)

	assert.ElementsMatch(t, []Action{ActionRead, ActionUpdate}, merged["DOCUMENTATION"])
	assert.Equal(t, []Action{ActionCreate}, merged["PLAN"])
	// the source tables are untouched
	assert.Equal(t, []Action{ActionRead}, direct["DOCUMENTATION"])
}

func TestTable_NormalizeDeduplicates(t *testing.T) {
	tbl := Table{"MEMBER": {ActionUpdate, ActionCreate, ActionUpdate}}
	require.NoError(t, tbl.Normalize())
	assert.Equal(t, []Action{ActionCreate, ActionUpdate}, tbl["MEMBER"])
}

func TestTable_NormalizeRejectsBadSymbol(t *testing.T) {
	tbl := Table{"MEMBER": {Action('Z')}}
	assert.Error(t, tbl.Normalize())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tbl := Table{
		"DOCUMENTATION": {ActionCreate, ActionUpdate},
		"PLAN":          {ActionRead},
	}
	values, err := Encode(ScopeAPI, tbl)
	require.NoError(t, err)
	require.Len(t, values, 2)

	decoded := Decode(ScopeAPI, values)
	assert.ElementsMatch(t, []Action{ActionCreate, ActionUpdate}, decoded["DOCUMENTATION"])
	assert.Equal(t, []Action{ActionRead}, decoded["PLAN"])
}

func TestEncode_RejectsUnknownKey(t *testing.T) {
	_, err := Encode(ScopeGroup, Table{"DOCUMENTATION": {ActionRead}})
	assert.Error(t, err)
}

func TestSignature_DetectsDrift(t *testing.T) {
	baseline := FullCRUD(ScopeManagement)
	drifted := baseline.Clone()
	drifted["ROLE"] = []Action{ActionRead}

	baseSig, err := Signature(ScopeManagement, baseline)
	require.NoError(t, err)
	driftSig, err := Signature(ScopeManagement, drifted)
	require.NoError(t, err)

	assert.NotEqual(t, baseSig, driftSig)

	// action order never changes the signature
	reordered := Table{}
	for k, v := range baseline {
		rev := make([]Action, len(v))
		for i := range v {
			rev[i] = v[len(v)-1-i]
		}
		reordered[k] = rev
	}
	reorderedSig, err := Signature(ScopeManagement, reordered)
	require.NoError(t, err)
	assert.Equal(t, baseSig, reorderedSig)
}

func TestFullCRUD_CoversCatalog(t *testing.T) {
	for _, scope := range Scopes() {
		tbl := FullCRUD(scope)
		assert.Len(t, tbl, len(ByScope(scope)), "scope %s", scope)
		for key, actions := range tbl {
			assert.Len(t, actions, 4, "%s/%s", scope, key)
		}
	}
}

package curvature_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gocurvature/internal/curvature"
	"github.com/njchilds90/gocurvature/symbolic"
)

func TestParseOperation(t *testing.T) {
	for _, op := range curvature.Operations() {
		got, err := curvature.ParseOperation(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	for _, bad := range []string{"", "bogus", "Tensor", "ricci_scalar"} {
		_, err := curvature.ParseOperation(bad)
		assert.ErrorIs(t, err, curvature.ErrInvalidOperation, bad)
	}
}

func TestOperations_Order(t *testing.T) {
	want := []curvature.Operation{"tensor", "riemann", "ricci", "ricciScalar", "weylTensor", "kretschmann"}
	if diff := cmp.Diff(want, curvature.Operations()); diff != "" {
		t.Errorf("Operations() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := curvature.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, curvature.FormatString, f)
	f, err = curvature.ParseFormat("latex")
	require.NoError(t, err)
	assert.Equal(t, curvature.FormatLaTeX, f)
	_, err = curvature.ParseFormat("xml")
	assert.ErrorIs(t, err, curvature.ErrInvalidFormat)
}

func TestParseSubstitutions(t *testing.T) {
	subs, err := curvature.ParseSubstitutions(map[string]string{"G": "1", "M": "m/2", "r_s": "2*M"})
	require.NoError(t, err)
	assert.Equal(t, "1", subs["G"].String())
	assert.Equal(t, "m/2", subs["M"].String())
	assert.Equal(t, "2*M", subs["r_s"].String())

	none, err := curvature.ParseSubstitutions(nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, bad := range []map[string]string{
		{"2x": "1"},
		{"sin(x)": "1"},
		{"G": "1 +"},
		{"G": ""},
	} {
		_, err := curvature.ParseSubstitutions(bad)
		assert.ErrorIs(t, err, curvature.ErrInvalidSubstitution, bad)
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := curvature.ParseAssignments([]string{"G=1", " c = 1 , M=2"})
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]string{"G": "1", "c": "1", "M": "2"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	for _, bad := range []string{"G", "=1", "G="} {
		_, err := curvature.ParseAssignments([]string{bad})
		assert.ErrorIs(t, err, curvature.ErrInvalidSubstitution, bad)
	}
}

func TestTensor_Rendering(t *testing.T) {
	m := symbolic.Diagonal(symbolic.N(1), symbolic.S("x"))
	tensor := curvature.TensorFromMatrix("g", []string{"t", "theta"}, m)
	assert.Equal(t, 2, tensor.Rank())
	assert.Equal(t, 2, tensor.Dim())
	assert.Equal(t, "[[1, 0], [0, x]]", tensor.String())
	assert.Equal(t, `\begin{pmatrix}1 & 0 \\ 0 & x\end{pmatrix}`, tensor.LaTeX())
	assert.False(t, tensor.IsZero())

	js, err := tensor.JSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"rank":2`)
	assert.Contains(t, js, `"coords":["t","theta"]`)
}

func TestRiemann_LaTeXListsNonzeroComponents(t *testing.T) {
	riem, err := engineFor(t, "Schwarzschild").Riemann(context.Background())
	require.NoError(t, err)
	tex := riem.LaTeX()
	assert.Contains(t, tex, `\begin{aligned}`)
	assert.Contains(t, tex, `R_{t r t r} &=`)
	assert.NotContains(t, tex, `R_{t t t t}`)
}

func TestContractKretschmann_RankMismatch(t *testing.T) {
	g := curvature.TensorFromMatrix("g", []string{"x", "y"}, symbolic.Identity(2))
	_, err := curvature.ContractKretschmann(context.Background(), g, symbolic.Identity(2), nil)
	assert.ErrorIs(t, err, symbolic.ErrDimension)
}

// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package pairkey

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dryhq/dry/pkg/extract"
)

func TestFor_FunctionIsQualifiedNamePlusArity(t *testing.T) {
	u := extract.IndexUnit{
		UnitType: extract.UnitFunction,
		Name:     "Sample.sum",
		Code:     "int sum(int a, int b) {\n  return a + b;\n}",
	}
	require.Equal(t, "Sample.sum(arity:2)", For(u))
}

func TestFor_FunctionArityIgnoresGenericsAndNesting(t *testing.T) {
	u := extract.IndexUnit{
		UnitType: extract.UnitFunction,
		Name:     "Sample.merge",
		Code:     "List<Map<String, Integer>> merge(Map<String, Integer> a, List<Integer> b, int c) { return null; }",
	}
	require.Equal(t, "Sample.merge(arity:3)", For(u))
}

func TestFor_FunctionZeroArity(t *testing.T) {
	u := extract.IndexUnit{UnitType: extract.UnitFunction, Name: "Sample.reset", Code: "void reset() {}"}
	require.Equal(t, "Sample.reset(arity:0)", For(u))
}

func TestFor_FunctionIdentityIgnoresWhitespaceAndBody(t *testing.T) {
	u1 := extract.IndexUnit{UnitType: extract.UnitFunction, Name: "Sample.sum", Code: "int sum(int a,int b){return a+b;}"}
	u2 := extract.IndexUnit{UnitType: extract.UnitFunction, Name: "Sample.sum", Code: "int sum(int a, int b) {\n    return a + b; // different body\n}"}
	require.Equal(t, For(u1), For(u2))
}

func TestFor_ClassIsFilePath(t *testing.T) {
	u := extract.IndexUnit{UnitType: extract.UnitClass, FilePath: "src/main/java/Sample.java"}
	require.Equal(t, "src/main/java/Sample.java", For(u))
}

func TestFor_BlockHashIgnoresCommentsAndWhitespace(t *testing.T) {
	u1 := extract.IndexUnit{UnitType: extract.UnitBlock, Code: "if (x > 0) {\n  // positive\n  return x;\n}"}
	u2 := extract.IndexUnit{UnitType: extract.UnitBlock, Code: "if(x>0){return x;}"}
	require.Equal(t, For(u1), For(u2))
}

func TestFor_BlockHashDiffersOnMeaningfulChange(t *testing.T) {
	u1 := extract.IndexUnit{UnitType: extract.UnitBlock, Code: "if (x > 0) { return x; }"}
	u2 := extract.IndexUnit{UnitType: extract.UnitBlock, Code: "if (x < 0) { return x; }"}
	require.NotEqual(t, For(u1), For(u2))
}

func TestCanonical_OrderInsensitive(t *testing.T) {
	k1 := Canonical(extract.UnitFunction, "Other.add(arity:2)", "Sample.sum(arity:2)")
	k2 := Canonical(extract.UnitFunction, "Sample.sum(arity:2)", "Other.add(arity:2)")
	require.Equal(t, k1, k2)
	require.Equal(t, "function|Other.add(arity:2)|Sample.sum(arity:2)", k1)
}

func TestForPair_ExclusionScenarioE1(t *testing.T) {
	a := extract.IndexUnit{UnitType: extract.UnitFunction, Name: "Sample.sum", Code: "int sum(int a, int b) { return a + b; }"}
	b := extract.IndexUnit{UnitType: extract.UnitFunction, Name: "Other.add", Code: "int add(int x, int y) { return x + y; }"}

	require.Equal(t, "function|Other.add(arity:2)|Sample.sum(arity:2)", ForPair(a, b))
	require.Equal(t, ForPair(a, b), ForPair(b, a))
}

func TestForPair_PanicsOnMismatchedTypes(t *testing.T) {
	a := extract.IndexUnit{UnitType: extract.UnitFunction, Name: "Sample.sum"}
	b := extract.IndexUnit{UnitType: extract.UnitClass, FilePath: "Sample.java"}
	require.Panics(t, func() { ForPair(a, b) })
}

func TestParsePairKey_RejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "function|onlyone", "weird|a|b", "function|a|b|c"} {
		_, _, _, ok := ParsePairKey(s)
		require.False(t, ok, "expected %q to be malformed", s)
	}
}

func TestParsePairKey_CanonicalizesOrder(t *testing.T) {
	typ, a, b, ok := ParsePairKey("function|Sample.sum(arity:2)|Other.add(arity:2)")
	require.True(t, ok)
	require.Equal(t, "function", typ)
	require.Equal(t, "Other.add(arity:2)", a)
	require.Equal(t, "Sample.sum(arity:2)", b)
}

func TestMatches_FunctionRequiresExactEquality(t *testing.T) {
	pattern := "function|Other.add(arity:2)|Sample.sum(arity:2)"
	require.True(t, Matches(extract.UnitFunction, "Sample.sum(arity:2)", "Other.add(arity:2)", pattern))
	require.False(t, Matches(extract.UnitFunction, "Sample.sum(arity:3)", "Other.add(arity:2)", pattern))
}

func TestMatches_ClassUsesGlobBothOrderings(t *testing.T) {
	pattern := "class|src/legacy/**|src/new/Sample.java"
	require.True(t, Matches(extract.UnitClass, "src/new/Sample.java", "src/legacy/Old.java", pattern))
	require.True(t, Matches(extract.UnitClass, "src/legacy/Old.java", "src/new/Sample.java", pattern))
	require.False(t, Matches(extract.UnitClass, "src/new/Sample.java", "src/other/Thing.java", pattern))
}

func TestMatches_RejectsWrongType(t *testing.T) {
	pattern := "class|a.java|b.java"
	require.False(t, Matches(extract.UnitFunction, "a.java", "b.java", pattern))
}

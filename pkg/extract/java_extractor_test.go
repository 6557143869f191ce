// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleClass = `
class Sample {
    int sum(int a, int b) {
        int total = a + b;
        if (total > 0) {
            total = total + 1;
        }
        return total;
    }

    int getX() {
        return x;
    }
}
`

func TestJavaExtractor_Supports(t *testing.T) {
	e := NewJavaExtractor()
	require.True(t, e.Supports("src/Sample.java"))
	require.False(t, e.Supports("src/sample.go"))
}

func TestJavaExtractor_EmitsClassAndFunction(t *testing.T) {
	e := NewJavaExtractor()
	units, err := e.ExtractFromText("Sample.java", []byte(sampleClass), DefaultScanConfig())
	require.NoError(t, err)

	var classes, funcs []IndexUnit
	for _, u := range units {
		switch u.UnitType {
		case UnitClass:
			classes = append(classes, u)
		case UnitFunction:
			funcs = append(funcs, u)
		}
	}

	require.Len(t, classes, 1)
	require.Equal(t, "Sample", classes[0].Name)

	require.Len(t, funcs, 1)
	require.Equal(t, "Sample.sum", funcs[0].Name)
}

func TestJavaExtractor_SkipsAccessors(t *testing.T) {
	e := NewJavaExtractor()
	units, err := e.ExtractFromText("Sample.java", []byte(sampleClass), DefaultScanConfig())
	require.NoError(t, err)

	for _, u := range units {
		require.NotEqual(t, "Sample.getX", u.Name, "accessor getX must not be emitted")
	}
}

func TestJavaExtractor_ClassBodyStripsMethodImplementations(t *testing.T) {
	e := NewJavaExtractor()
	units, err := e.ExtractFromText("Sample.java", []byte(sampleClass), DefaultScanConfig())
	require.NoError(t, err)

	var class IndexUnit
	for _, u := range units {
		if u.UnitType == UnitClass {
			class = u
		}
	}
	require.NotContains(t, class.Code, "total = a + b")
}

func TestJavaExtractor_MinLinesFiltersShortMethods(t *testing.T) {
	src := `
class Sample {
    void shorty(){}
}
`
	e := NewJavaExtractor()
	cfg := ScanConfig{MinLines: 5, MinBlockLines: 5}
	units, err := e.ExtractFromText("Sample.java", []byte(src), cfg)
	require.NoError(t, err)

	for _, u := range units {
		require.NotEqual(t, "Sample.shorty", u.Name)
	}
}

func TestJavaExtractor_ExtractCallsFromUnit(t *testing.T) {
	src := `
class Sample {
    int helper(int a, int b, int c) {
        int x = compute(a, b);
        return x + c;
    }
}
`
	e := NewJavaExtractor()
	units, err := e.ExtractFromText("Sample.java", []byte(src), DefaultScanConfig())
	require.NoError(t, err)

	var fnID string
	for _, u := range units {
		if u.UnitType == UnitFunction {
			fnID = u.ID
		}
	}
	require.NotEmpty(t, fnID)

	calls, err := e.ExtractCallsFromUnit("Sample.java", fnID)
	require.NoError(t, err)
	require.Contains(t, calls, "compute")
}

func TestJavaExtractor_TwoIdenticalMethodBodiesAcrossFiles(t *testing.T) {
	srcA := `class Sample { int sum(int a, int b) { int t = a + b; if (t > 0) { t = t + 1; } return t; } }`
	srcB := `class Other { int add(int x, int y) { int t = x + y; if (t > 0) { t = t + 1; } return t; } }`

	e := NewJavaExtractor()
	cfg := ScanConfig{MinLines: 1, MinBlockLines: 5}
	unitsA, err := e.ExtractFromText("Sample.java", []byte(srcA), cfg)
	require.NoError(t, err)
	unitsB, err := e.ExtractFromText("Other.java", []byte(srcB), cfg)
	require.NoError(t, err)

	require.NotEmpty(t, unitsA)
	require.NotEmpty(t, unitsB)
}

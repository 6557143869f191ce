// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// accessorPattern matches trivial accessor method names: getX/isX/setX.
var accessorPattern = regexp.MustCompile(`^(get|is)[A-Z]|^set[A-Z]`)

// globalMinBlockLines is the hard floor below which no BLOCK is ever
// emitted, regardless of config; config.minBlockLines may only raise it.
const globalMinBlockLines = 5

// parsedJavaFile is the cached parse state for a single file, keyed by
// filePath, so ExtractCallsFromUnit does not reparse.
type parsedJavaFile struct {
	tree   *sitter.Tree
	source []byte
	// nodeByUnitID records the AST node each emitted unit (CLASS/FUNCTION)
	// came from, so calls can be re-extracted on demand.
	nodeByUnitID map[string]*sitter.Node
}

// JavaExtractor is the reference LanguageExtractor implementation, grounded
// on the tree-sitter Go/TypeScript extractors: parse-once-cache-by-path,
// depth-first sitter.Node walking, tolerant of syntax errors.
type JavaExtractor struct {
	parser *sitter.Parser
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*parsedJavaFile
}

// NewJavaExtractor returns a ready-to-use Java extractor.
func NewJavaExtractor() *JavaExtractor {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &JavaExtractor{
		parser: p,
		logger: slog.Default(),
		cache:  make(map[string]*parsedJavaFile),
	}
}

// Supports reports whether filePath is a .java file.
func (e *JavaExtractor) Supports(filePath string) bool {
	return strings.HasSuffix(filePath, ".java")
}

// countErrors counts ERROR nodes in the subtree rooted at n, used only for
// diagnostic logging; tree-sitter itself tolerates and recovers from them.
func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.IsError() {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

// ExtractFromText parses source and returns the flat list of emitted units.
func (e *JavaExtractor) ExtractFromText(filePath string, source []byte, cfg ScanConfig) ([]IndexUnit, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse %s: %w", filePath, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			e.logger.Warn("extract.java.syntax_errors", "path", filePath, "error_count", n)
		}
	}

	pf := &parsedJavaFile{tree: tree, source: source, nodeByUnitID: make(map[string]*sitter.Node)}

	w := &javaWalker{
		source: source,
		cfg:    cfg,
		pf:     pf,
	}
	w.walk(root, "", "")

	e.mu.Lock()
	if old, ok := e.cache[filePath]; ok {
		old.tree.Close()
	}
	e.cache[filePath] = pf
	e.mu.Unlock()

	for i := range w.units {
		w.units[i].FilePath = filePath
	}
	return w.units, nil
}

// ExtractCallsFromUnit returns the names directly invoked by unitID's body,
// using the parse state cached by the most recent ExtractFromText call on
// filePath.
func (e *JavaExtractor) ExtractCallsFromUnit(filePath, unitID string) ([]string, error) {
	e.mu.Lock()
	pf, ok := e.cache[filePath]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("extract: %s has not been parsed", filePath)
	}

	node, ok := pf.nodeByUnitID[unitID]
	if !ok {
		return nil, fmt.Errorf("extract: unit %s not found in %s", unitID, filePath)
	}

	var callees []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "method_invocation" {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				callees = append(callees, string(pf.source[nameNode.StartByte():nameNode.EndByte()]))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
	return callees, nil
}

// javaWalker carries traversal state for one file's parse tree.
type javaWalker struct {
	source []byte
	cfg    ScanConfig
	pf     *parsedJavaFile
	units  []IndexUnit
}

func (w *javaWalker) text(n *sitter.Node) string {
	return string(w.source[n.StartByte():n.EndByte()])
}

func (w *javaWalker) lineSpan(n *sitter.Node) (start, end int) {
	return int(n.StartPoint().Row), int(n.EndPoint().Row)
}

// walk depth-first traverses the tree. parentClassName/parentClassID are
// propagated while inside a class body; parentFuncID while inside a method
// body (for BLOCK parent linkage).
func (w *javaWalker) walk(n *sitter.Node, parentClassName, parentClassID string) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration":
		w.handleClass(n, parentClassID)
		return // handleClass recurses into members itself
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i), parentClassName, parentClassID)
	}
}

func (w *javaWalker) className(n *sitter.Node) string {
	if id := n.ChildByFieldName("name"); id != nil {
		return w.text(id)
	}
	return "Anonymous"
}

// handleClass emits a CLASS unit (with member bodies stripped) unless the
// class reduces to accessor-only members, in which case the class AND its
// descendants are skipped entirely, per §4.3-J's "skip evaluated before
// descending" rule.
func (w *javaWalker) handleClass(n *sitter.Node, grandParentClassID string) {
	name := w.className(n)
	start, end := w.lineSpan(n)

	members := w.collectMemberFuncs(n)
	if w.classIsAccessorOnly(members) {
		return
	}

	lines := end - start + 1
	skip := lines < w.cfg.MinLines

	id := fmt.Sprintf("%s:%s:%d-%d", UnitClass, name, start, end)
	if !skip {
		code := w.stripMemberBodies(n)
		w.units = append(w.units, IndexUnit{
			ID:        id,
			Name:      name,
			StartLine: start,
			EndLine:   end,
			Code:      code,
			UnitType:  UnitClass,
			ParentID:  grandParentClassID,
		})
		w.pf.nodeByUnitID[id] = n
	}

	classID := id
	if skip {
		classID = ""
	}
	for _, m := range members {
		w.handleMethod(m, name, classID)
	}

	// Recurse into nested classes/members not captured as methods.
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "class_declaration", "interface_declaration", "enum_declaration":
				w.handleClass(child, classID)
			}
		}
	}
}

// collectMemberFuncs returns the method/constructor declaration nodes that
// are direct members of the class body.
func (w *javaWalker) collectMemberFuncs(classNode *sitter.Node) []*sitter.Node {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "method_declaration", "constructor_declaration":
			out = append(out, child)
		}
	}
	return out
}

func (w *javaWalker) methodName(n *sitter.Node) string {
	if id := n.ChildByFieldName("name"); id != nil {
		return w.text(id)
	}
	return "<init>"
}

// classIsAccessorOnly reports whether every member method is a trivial
// accessor, meaning the class unit (and its descendants) should be skipped.
func (w *javaWalker) classIsAccessorOnly(members []*sitter.Node) bool {
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if !accessorPattern.MatchString(w.methodName(m)) {
			return false
		}
	}
	return true
}

// stripMemberBodies returns the class source with every member method/
// constructor body replaced by " { }", keeping shape without implementation.
func (w *javaWalker) stripMemberBodies(classNode *sitter.Node) string {
	start := classNode.StartByte()
	end := classNode.EndByte()
	src := w.source[start:end]

	type span struct{ s, e uint32 }
	var bodies []span
	body := classNode.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			if child.Type() != "method_declaration" && child.Type() != "constructor_declaration" {
				continue
			}
			b := child.ChildByFieldName("body")
			if b == nil {
				continue
			}
			bodies = append(bodies, span{b.StartByte() - start, b.EndByte() - start})
		}
	}

	if len(bodies) == 0 {
		return string(src)
	}

	var out strings.Builder
	var cursor uint32
	for _, sp := range bodies {
		out.Write(src[cursor:sp.s])
		out.WriteString(" { }")
		cursor = sp.e
	}
	out.Write(src[cursor:])
	return out.String()
}

// handleMethod emits a FUNCTION unit for a method/constructor declaration,
// then recurses into its body to find nested BLOCKs.
func (w *javaWalker) handleMethod(n *sitter.Node, className, classID string) {
	shortName := w.methodName(n)
	qualified := shortName
	if className != "" {
		qualified = className + "." + shortName
	}
	start, end := w.lineSpan(n)
	lines := end - start + 1

	if accessorPattern.MatchString(shortName) {
		return
	}
	if lines < w.cfg.MinLines {
		// Still descend for BLOCK extraction is unnecessary: a function
		// below the floor carries no emitted descendants either.
		return
	}

	id := fmt.Sprintf("%s:%s:%d-%d", UnitFunction, qualified, start, end)
	w.units = append(w.units, IndexUnit{
		ID:        id,
		Name:      qualified,
		StartLine: start,
		EndLine:   end,
		Code:      w.text(n),
		UnitType:  UnitFunction,
		ParentID:  classID,
	})
	w.pf.nodeByUnitID[id] = n

	body := n.ChildByFieldName("body")
	if body != nil {
		w.walkBlocks(body, id)
	}
}

// walkBlocks recurses through a function body looking for nested "block"
// nodes meeting the minimum block line span.
func (w *javaWalker) walkBlocks(n *sitter.Node, parentFuncID string) {
	if n == nil {
		return
	}
	if n.Type() == "block" {
		start, end := w.lineSpan(n)
		floor := w.cfg.MinBlockLines
		if floor < globalMinBlockLines {
			floor = globalMinBlockLines
		}
		if end-start+1 >= floor {
			id := fmt.Sprintf("%s:%s:%d-%d", UnitBlock, parentFuncID, start, end)
			w.units = append(w.units, IndexUnit{
				ID:        id,
				Name:      parentFuncID,
				StartLine: start,
				EndLine:   end,
				Code:      w.text(n),
				UnitType:  UnitBlock,
				ParentID:  parentFuncID,
			})
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walkBlocks(n.Child(i), parentFuncID)
	}
}

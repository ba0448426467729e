package project_scanner

import (
	"context"
	"sort"
	"sync"

	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/project_scanner/models"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"
)

// grammar pairs a tree-sitter language with a query whose capture names are chunk units.
type grammar struct {
	language func() *sitter.Language
	source   string

	once  sync.Once
	query *sitter.Query
	err   error
}

var grammars = map[string]*grammar{
	"go": {
		language: golang.GetLanguage,
		source: `
(function_declaration) @function
(method_declaration) @method
(type_declaration) @type`,
	},
	"python": {
		language: python.GetLanguage,
		source: `
(function_definition) @function
(class_definition) @class`,
	},
	"javascript": {
		language: javascript.GetLanguage,
		source: `
(function_declaration) @function
(generator_function_declaration) @function
(class_declaration) @class
(lexical_declaration (variable_declarator value: (arrow_function))) @function`,
	},
	"typescript": {
		language: typescript.GetLanguage,
		source: `
(function_declaration) @function
(class_declaration) @class
(abstract_class_declaration) @class
(interface_declaration) @type
(type_alias_declaration) @type
(enum_declaration) @type
(lexical_declaration (variable_declarator value: (arrow_function))) @function`,
	},
	"java": {
		language: java.GetLanguage,
		source: `
(class_declaration) @class
(interface_declaration) @type
(enum_declaration) @type`,
	},
	"csharp": {
		language: csharp.GetLanguage,
		source: `
(class_declaration) @class
(interface_declaration) @type
(struct_declaration) @type
(enum_declaration) @type`,
	},
}

// compiled returns the shared query, compiling it on first use.
func (g *grammar) compiled() (*sitter.Query, error) {
	g.once.Do(func() {
		g.query, g.err = sitter.NewQuery([]byte(g.source), g.language())
	})
	return g.query, g.err
}

// treeSitterChunks returns a semantic extractor for one of the registered grammars.
func treeSitterChunks(language string) func(string) []models.SemanticChunk {
	return func(content string) []models.SemanticChunk {
		g, ok := grammars[language]
		if !ok {
			return nil
		}
		chunks, err := g.extract(content)
		if err != nil {
			logging.Debug("tree-sitter extraction failed", zap.String("language", language), logging.Err(err))
			return nil
		}
		return chunks
	}
}

type capturedNode struct {
	unit  models.ChunkUnit
	start uint32
	end   uint32
	node  *sitter.Node
}

// extract parses content and returns the outermost captured declarations in source order.
func (g *grammar) extract(content string) ([]models.SemanticChunk, error) {
	query, err := g.compiled()
	if err != nil {
		return nil, err
	}

	source := []byte(content)
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var captured []capturedNode
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			captured = append(captured, capturedNode{
				unit:  models.ChunkUnit(query.CaptureNameForId(capture.Index)),
				start: capture.Node.StartByte(),
				end:   capture.Node.EndByte(),
				node:  capture.Node,
			})
		}
	}

	sort.SliceStable(captured, func(i, j int) bool {
		if captured[i].start == captured[j].start {
			return captured[i].end > captured[j].end
		}
		return captured[i].start < captured[j].start
	})

	var chunks []models.SemanticChunk
	var coveredUntil uint32
	for _, item := range captured {
		// Nested declarations are already part of their enclosing chunk.
		if len(chunks) > 0 && item.start < coveredUntil {
			continue
		}
		coveredUntil = item.end

		name := ""
		if nameNode := item.node.ChildByFieldName("name"); nameNode != nil {
			name = nameNode.Content(source)
		}
		chunks = append(chunks, models.SemanticChunk{
			Unit:      item.unit,
			Name:      name,
			Content:   item.node.Content(source),
			StartLine: int(item.node.StartPoint().Row) + 1,
			EndLine:   int(item.node.EndPoint().Row) + 1,
		})
	}
	return chunks, nil
}

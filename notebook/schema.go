package notebook

import (
	_ "embed"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed nbformat_schema.json
var schemaJSON string

// documentSchema validates the accepted nbformat v4 subset. Compiled once at
// package load; the embedded schema is a constant, so failure to compile is a
// programming error.
var documentSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inkwell://nbformat.schema.json", strings.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("inkwell://nbformat.schema.json")
}

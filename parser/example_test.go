package parser_test

import (
	"fmt"

	"github.com/shibukawa/ucl"
	"github.com/shibukawa/ucl/expand"
	"github.com/shibukawa/ucl/parser"
)

func ExampleParseString() {
	v, _ := parser.ParseString(`
server {
    listen 8080
    debug on
}
`)
	fmt.Println(ucl.Format(v))
	// Output: {"server":{"listen":8080,"debug":true}}
}

func ExampleParser_AddVariableHandler() {
	p := parser.New(`greeting = "hello, ${NAME:-world}"`)
	p.AddVariableHandler(expand.MapHandler{"NAME": "ucl"})

	v, _ := p.ParseDocument()
	fmt.Println(ucl.Format(v))
	// Output: {"greeting":"hello, ucl"}
}

func ExampleParseString_duplicateKeys() {
	v, _ := parser.ParseString("port = 80\nport = 443")
	fmt.Println(ucl.Format(v))
	// Output: {"port":[80,443]}
}

package argparser

import (
	"testing"

	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args string
		want []Group
	}{
		{
			name: "single name",
			args: "foo",
			want: []Group{
				{Name: "foo", NameOffset: 0, Context: model.RefContextSymbol},
			},
		},
		{
			name: "two args separated by comma",
			args: "foo, bar",
			want: []Group{
				{Name: "foo", NameOffset: 0, Context: model.RefContextSymbol},
				{Name: "bar", NameOffset: 5, Context: model.RefContextSymbol},
			},
		},
		{
			name: "qualified chain",
			args: "Foo::Bar::baz",
			want: []Group{
				{Qualifiers: []string{"Foo", "Bar"}, Name: "baz", NameOffset: 10, Context: model.RefContextSymbol},
			},
		},
		{
			name: "root anchor",
			args: "::foo",
			want: []Group{
				{Qualifiers: []string{""}, Name: "foo", NameOffset: 2, Context: model.RefContextSymbol},
			},
		},
		{
			name: "sizeof tags last token",
			args: ".sizeof(Foo::bar)",
			want: []Group{
				{Qualifiers: []string{"Foo"}, Name: "bar", NameOffset: 13, Context: model.RefContextSizeof},
			},
		},
		{
			name: "sizeof alongside plain operand",
			args: ".sizeof(bar), #1",
			want: []Group{
				{Name: "bar", NameOffset: 8, Context: model.RefContextSizeof},
			},
		},
		{
			name: "string literal contents ignored",
			args: `"foo::bar"`,
			want: nil,
		},
		{
			name: "hex literal digits ignored",
			args: "$FF",
			want: nil,
		},
		{
			name: "cheap local name",
			args: "@loop",
			want: []Group{
				{Name: "@loop", NameOffset: 0, Context: model.RefContextSymbol},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArgs(tt.args, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseImportExportItems(t *testing.T) {
	tests := []struct {
		name string
		args string
		want []ImportExportItem
	}{
		{
			name: "plain identifier",
			args: "foo",
			want: []ImportExportItem{
				{Name: "foo", NameOffset: 0},
			},
		},
		{
			name: "two identifiers",
			args: "foo, bar",
			want: []ImportExportItem{
				{Name: "foo", NameOffset: 0},
				{Name: "bar", NameOffset: 5},
			},
		},
		{
			name: "addrspec",
			args: "foo: zeropage",
			want: []ImportExportItem{
				{Name: "foo", NameOffset: 0, AddrSpec: "zeropage"},
			},
		},
		{
			name: "equals value",
			args: "foo = 1",
			want: []ImportExportItem{
				{Name: "foo", NameOffset: 0, HasValue: true, Value: "1", ValueOffset: 6},
			},
		},
		{
			name: "colon-equals value",
			args: "foo := 1",
			want: []ImportExportItem{
				{Name: "foo", NameOffset: 0, HasValue: true, Value: "1", ValueOffset: 7},
			},
		},
		{
			name: "addrspec and value combined",
			args: "foo: far = bar+1",
			want: []ImportExportItem{
				{Name: "foo", NameOffset: 0, AddrSpec: "far", HasValue: true, Value: "bar+1", ValueOffset: 11},
			},
		},
		{
			name: "value containing a comma inside parens is not split",
			args: "foo = (1,2)",
			want: []ImportExportItem{
				{Name: "foo", NameOffset: 0, HasValue: true, Value: "(1,2)", ValueOffset: 6},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseImportExportItems(tt.args, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

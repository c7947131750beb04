package cmd

import (
	"testing"
)

func TestResolveTemplateTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   string
		path     string
		wantPath string
		wantExt  string
		wantErr  bool
	}{
		{name: "defaults to csv download name", wantPath: "vcnty_items_template.csv", wantExt: ".csv"},
		{name: "excel format without path", format: "excel", wantPath: "vcnty_items_template.xlsx", wantExt: ".xlsx"},
		{name: "format inferred from path", path: "./items.xlsx", wantPath: "./items.xlsx", wantExt: ".xlsx"},
		{name: "explicit format wins", format: "csv", path: "./items.xlsx", wantPath: "./items.xlsx", wantExt: ".csv"},
		{name: "unsupported format", format: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, writer, err := resolveTemplateTarget(tt.format, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if path != tt.wantPath || writer.Extension() != tt.wantExt {
				t.Fatalf("unexpected target: %q %q", path, writer.Extension())
			}
		})
	}
}

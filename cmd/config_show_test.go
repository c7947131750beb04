package cmd

import (
	"bytes"
	"strings"
	"testing"

	"vcnty/config"
)

func TestPrintConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.ValidateYAMLContent([]byte(`identity:
  url: "https://id.vcnty.example"
  anon_key: "secret-anon-key"
rules:
  - name: "corner"
    file_template: "corner-*.csv"
    store_id: "store-1"
  - name: "market"
    file_template: "market-*.xlsx"
    store_id: "store-2"
    currency: "USD"
`))
	if err != nil {
		t.Fatalf("validate config: %v", err)
	}

	var out bytes.Buffer
	printConfig(&out, cfg)
	text := out.String()

	if strings.Contains(text, "secret-anon-key") {
		t.Fatalf("anon key must not be printed:\n%s", text)
	}
	for _, want := range []string{
		"api.url: http://localhost/api",
		"identity.anon_key: ****-key",
		"import.default_currency: EUR",
		"rules: 2",
		"rules[0].currency: EUR (default)",
		"rules[1].currency: USD",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

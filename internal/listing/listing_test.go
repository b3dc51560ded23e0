package listing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Nasdaq(t *testing.T) {
	csv := "Symbol,Company Name,Security Name,Market Category,Test Issue,Financial Status,Round Lot Size\n" +
		"AAPL,Apple Inc.,Apple Inc. - Common Stock,Q,N,N,100\n" +
		"ZAZZT,Tick Pilot Test,Tick Pilot Test Stock,G,Y,N,100\n" +
		",,,,,,\n" +
		"MSFT,Microsoft Corporation,Microsoft Corporation - Common Stock,Q,N,N,100\n"

	entries, err := Parse(strings.NewReader(csv), Nasdaq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Symbol != "AAPL" || entries[0].Name != "Apple Inc." {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if got := Symbols(entries); got[1] != "MSFT" {
		t.Errorf("unexpected symbols: %v", got)
	}
}

func TestParse_NYSEUsesActSymbol(t *testing.T) {
	csv := "ACT Symbol,Company Name,Security Name,Exchange,CQS Symbol,ETF,Round Lot Size,Test Issue,NASDAQ Symbol\n" +
		"A,Agilent Technologies,Agilent Technologies Inc. Common Stock,N,A,N,100,N,A\n" +
		"SPY,SPDR S&P 500,SPDR S&P 500 ETF Trust,P,SPY,Y,100,N,SPY\n"

	entries, err := Parse(strings.NewReader(csv), NYSE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Symbol != "A" || entries[0].ETF {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Symbol != "SPY" || !entries[1].ETF {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestParse_Digital(t *testing.T) {
	csv := "currency code,currency name\n"
	if _, err := Parse(strings.NewReader(csv), Digital); err == nil {
		t.Fatal("expected error for missing symbol column")
	} else if !strings.Contains(err.Error(), "symbol") {
		t.Errorf("expected error to mention missing column, got: %s", err.Error())
	}

	csv = "symbol,name\nBTC,Bitcoin\nETH,Ethereum\n"
	entries, err := Parse(strings.NewReader(csv), Digital)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[1].Name != "Ethereum" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	entries, err := Parse(strings.NewReader("symbol,name\n"), Digital)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestParseExchange(t *testing.T) {
	for in, want := range map[string]Exchange{"nasdaq": Nasdaq, "NYSE": NYSE, " Digital ": Digital} {
		got, err := ParseExchange(in)
		if err != nil || got != want {
			t.Errorf("ParseExchange(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseExchange("LSE"); err == nil {
		t.Error("expected error for unknown exchange")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digital.csv")
	if err := os.WriteFile(path, []byte("symbol,name\nDOGE,Dogecoin\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	entries, err := ReadFile(path, Digital)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Symbol != "DOGE" {
		t.Errorf("unexpected entries: %+v", entries)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), Nasdaq); err == nil {
		t.Error("expected error for missing file")
	}
}

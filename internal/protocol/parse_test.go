package protocol

import (
	"errors"
	"testing"

	"github.com/lepaul-HOU16/worldops/internal/domain"
)

func TestFillParser(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    int64
		wantErr bool
	}{
		{"modern grammar", "Successfully filled 32768 block(s)", 32768, false},
		{"legacy grammar", "Filled 1000 blocks", 1000, false},
		{"nothing changed", "No blocks were filled", 0, false},
		{"trailing whitespace", "Successfully filled 1 block(s)\n", 1, false},
		{"unknown command", "Unknown command: flil", 0, true},
		{"empty", "", 0, true},
		{"error text", "Too many blocks in the specified area (131072 > 32768)", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FillParser{}.Parse(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, domain.ErrProtocol) {
					t.Errorf("error %v does not wrap ErrProtocol", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.line, got, tt.want)
			}
		})
	}
}

func TestGameruleParser(t *testing.T) {
	// Query and write acknowledgements use slightly different grammars.
	for _, line := range []string{
		"Gamerule doDaylightCycle is currently set to: false",
		"Gamerule doDaylightCycle is now set to: false",
	} {
		got, err := GameruleParser{}.Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", line, err)
		}
		if got != "false" {
			t.Errorf("Parse(%q) = %q, want false", line, got)
		}
	}

	if _, err := (GameruleParser{}).Parse("No game rule called 'doDaylightCycl' is available"); !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("malformed gamerule response error = %v, want ErrProtocol", err)
	}
}

func TestTimeParser(t *testing.T) {
	tests := []struct {
		line string
		want int64
	}{
		{"Set the time to 6000", 6000},
		{"The time is 6000", 6000},
		{"The time is 0", 0},
	}
	for _, tt := range tests {
		got, err := TimeParser{}.Parse(tt.line)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.line, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}

	if _, err := (TimeParser{}).Parse("Expected integer"); !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("malformed time response error = %v, want ErrProtocol", err)
	}
}

func TestProbeParser(t *testing.T) {
	if ok, err := (ProbeParser{}).Parse("Test passed"); err != nil || !ok {
		t.Errorf("Parse(Test passed) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := (ProbeParser{}).Parse("Test failed"); err != nil || ok {
		t.Errorf("Parse(Test failed) = %v, %v; want false, nil", ok, err)
	}
	if _, err := (ProbeParser{}).Parse("That position is not loaded"); !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("malformed probe response error = %v, want ErrProtocol", err)
	}
}

func TestCommandBuilders(t *testing.T) {
	slice := domain.NewRegion(domain.Pos{X: 0, Y: 0, Z: 0}, domain.Pos{X: 9, Y: 9, Z: 9})

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"fill replace", FillReplace(slice, domain.AirBlock, "minecraft:glass"),
			"fill 0 0 0 9 9 9 minecraft:air replace minecraft:glass"},
		{"plain fill", Fill(slice, "minecraft:grass_block"),
			"fill 0 0 0 9 9 9 minecraft:grass_block"},
		{"time set", TimeSet(6000), "time set 6000"},
		{"time query", TimeQuery(), "time query daytime"},
		{"gamerule set", GameruleSet(DaylightCycleRule, "false"), "gamerule doDaylightCycle false"},
		{"gamerule query", GameruleQuery(DaylightCycleRule), "gamerule doDaylightCycle"},
		{"probe", ProbeBlock(domain.Pos{X: 1, Y: 2, Z: 3}, domain.AirBlock), "execute if block 1 2 3 minecraft:air"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

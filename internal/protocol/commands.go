package protocol

import (
	"fmt"

	"github.com/lepaul-HOU16/worldops/internal/domain"
)

// DaylightCycleRule is the gamerule controlling automatic time progression.
const DaylightCycleRule = "doDaylightCycle"

// FillReplace builds a bulk-replace command: every cell of the slice holding
// oldBlock becomes newBlock. The protocol's replace primitive targets
// exactly one source identifier per call.
func FillReplace(slice domain.Region, newBlock, oldBlock string) string {
	return fmt.Sprintf("fill %s %s %s replace %s", slice.Min(), slice.Max(), newBlock, oldBlock)
}

// Fill builds an unconditional fill command for the slice.
func Fill(slice domain.Region, block string) string {
	return fmt.Sprintf("fill %s %s %s", slice.Min(), slice.Max(), block)
}

// TimeSet builds the command fixing the world time to the given tick value.
func TimeSet(ticks int64) string {
	return fmt.Sprintf("time set %d", ticks)
}

// TimeQuery builds the command reading the current daytime tick.
func TimeQuery() string {
	return "time query daytime"
}

// GameruleSet builds the command writing a gamerule value.
func GameruleSet(rule, value string) string {
	return fmt.Sprintf("gamerule %s %s", rule, value)
}

// GameruleQuery builds the command reading a gamerule value.
func GameruleQuery(rule string) string {
	return fmt.Sprintf("gamerule %s", rule)
}

// ProbeBlock builds a read-only probe testing whether the cell holds the
// given block identifier.
func ProbeBlock(p domain.Pos, block string) string {
	return fmt.Sprintf("execute if block %s %s", p, block)
}

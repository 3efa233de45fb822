package stockroom

import "github.com/TheBitDrifter/table"

// Config holds global configuration for the table system
var Config config = config{}

type config struct {
	tableEvents table.TableEvents
	traceAccess bool
}

// SetTableEvents configures the table event callbacks
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}

// SetTraceAccess toggles debug logging of every access acquire and release.
func (c *config) SetTraceAccess(on bool) {
	c.traceAccess = on
}

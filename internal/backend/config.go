package backend

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripwidget/internal/config"
)

// FromConfig builds the ordered strategy list. Each configured export file is
// its own strategy, tried in the order listed.
func FromConfig(c config.ChannelsConfig) ([]Backend, error) {
	var out []Backend
	for _, name := range c.Order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case config.ChannelDatabase:
			out = append(out, Database{Path: c.Resolve(c.Database)})
		case config.ChannelRegister:
			out = append(out, Register{Path: c.Resolve(c.Register), TripsKey: c.TripsKey})
		case config.ChannelFile:
			for _, f := range c.Files {
				out = append(out, File{Path: c.Resolve(f)})
			}
		default:
			return nil, fmt.Errorf("unknown channel %q", name)
		}
	}
	return out, nil
}

package service

import (
	"time"

	"github.com/jonboulle/clockwork"
)

func nowFrom(c clockwork.Clock) time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

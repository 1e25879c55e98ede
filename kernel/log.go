package kernel

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// NewLogger builds the kernel console. format is "text" or "json".
func NewLogger(out io.Writer, level, format string) (*log.Logger, error) {
	l := log.New()
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		l.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, ErrInvalidArgument
	}
	return l, nil
}

func procFields(p *Proc) log.Fields {
	return log.Fields{
		"pid":      p.pid,
		"name":     p.Name(),
		"state":    p.state,
		"priority": p.priority,
		"level":    p.queueLevel,
	}
}

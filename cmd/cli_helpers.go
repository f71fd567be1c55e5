package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/reqview/pkg/request"
)

// override is one parsed --set flag.
type override struct {
	key   string
	value int
}

// parseOverrides parses key=value pairs. Values must be integers.
func parseOverrides(raw []string) ([]override, error) {
	out := make([]override, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w: %q is not an integer", kv, request.ErrInvalidValue, value)
		}
		out = append(out, override{key: key, value: n})
	}
	return out, nil
}

// applyOverrides sets each override on v in order.
func applyOverrides(v *request.View, sets []override, lgr logr.Logger) error {
	for _, o := range sets {
		if err := v.Set(o.key, o.value); err != nil {
			return err
		}
		lgr.V(1).Info("applied override", "field", o.key, "value", o.value)
	}
	return nil
}

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Field describes one numeric input of the control panel.
type Field struct {
	Key   string
	Label string
	Step  float64
	Get   func(*Config) float64
	Set   func(*Config, float64)
}

// Fields are the control panel inputs in display order.
var Fields = []Field{
	{
		Key: "i0", Label: "Initial Infected", Step: 0.00001,
		Get: func(c *Config) float64 { return c.I0 },
		Set: func(c *Config, v float64) { c.I0 = v },
	},
	{
		Key: "beta", Label: "Beta (Infection Rate)", Step: 0.01,
		Get: func(c *Config) float64 { return c.Beta },
		Set: func(c *Config, v float64) { c.Beta = v },
	},
	{
		Key: "gamma", Label: "Gamma (Recovery Rate)", Step: 0.01,
		Get: func(c *Config) float64 { return c.Gamma },
		Set: func(c *Config, v float64) { c.Gamma = v },
	},
	{
		Key: "horizon", Label: "Time Period", Step: 5,
		Get: func(c *Config) float64 { return c.Horizon },
		Set: func(c *Config, v float64) { c.Horizon = v },
	},
}

// ParseField coerces the text of an input field to a float.
func ParseField(key, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, text)
	}
	return v, nil
}

// FieldByKey looks up a control panel field.
func FieldByKey(key string) (Field, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

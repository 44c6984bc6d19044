// Package harness runs evaluate-based contract tests: each case is an invoke
// transaction evaluated against a dApp on a live node without broadcasting,
// and checked against an expected state-change subset or error substring.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Expect is either an error substring or a partial result. An empty Expect
// only requires the evaluation to succeed.
type Expect struct {
	Error  string         `yaml:"error,omitempty"`
	Result map[string]any `yaml:"result,omitempty"`
}

// WantsError reports whether the case expects the node to reject the call.
func (e Expect) WantsError() bool { return e.Error != "" }

type Case struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	DApp        string         `yaml:"dApp,omitempty"`
	Tx          map[string]any `yaml:"tx"`
	Expect      Expect         `yaml:"expect"`
}

type Suite struct {
	Name  string `yaml:"name"`
	DApp  string `yaml:"dApp"`
	Cases []Case `yaml:"cases"`
}

// TemplateData is what case files can reference while being rendered.
type TemplateData struct {
	DApp  string
	State map[string]string
}

func templateFuncs(data TemplateData) template.FuncMap {
	return template.FuncMap{
		// state returns the raw value of a data key, "" when absent.
		"state": func(key string) string { return data.State[key] },
		// num returns a data key as an integer, 0 when absent or not numeric.
		"num": func(key string) int64 {
			n, _ := strconv.ParseInt(data.State[key], 10, 64)
			return n
		},
		"add": func(a, b any) (int64, error) { return arith(a, b, func(x, y int64) int64 { return x + y }) },
		"sub": func(a, b any) (int64, error) { return arith(a, b, func(x, y int64) int64 { return x - y }) },
		"mul": func(a, b any) (int64, error) { return arith(a, b, func(x, y int64) int64 { return x * y }) },

		"quote": strconv.Quote,
		"dapp":  func() string { return data.DApp },
	}
}

func arith(a, b any, op func(x, y int64) int64) (int64, error) {
	x, err := toInt(a)
	if err != nil {
		return 0, err
	}
	y, err := toInt(b)
	if err != nil {
		return 0, err
	}
	return op(x, y), nil
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

// ParseSuite renders the case file as a template, then decodes the YAML.
// Cases without a dApp inherit the suite's, which falls back to data.DApp.
func ParseSuite(name string, src []byte, data TemplateData) (*Suite, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs(data)).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}

	var s Suite
	if err := yaml.Unmarshal(buf.Bytes(), &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if s.DApp == "" {
		s.DApp = data.DApp
	}
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("%s#%02d", name, i+1)
		}
		if c.DApp == "" {
			c.DApp = s.DApp
		}
		if c.DApp == "" {
			return nil, fmt.Errorf("%s: case %q has no dApp", name, c.Name)
		}
		if c.Tx == nil {
			return nil, fmt.Errorf("%s: case %q has no tx", name, c.Name)
		}
		if _, ok := c.Tx["dApp"]; !ok {
			c.Tx["dApp"] = c.DApp
		}
	}
	return &s, nil
}

// LoadSuite reads and parses a case file.
func LoadSuite(path string, data TemplateData) (*Suite, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSuite(path, src, data)
}

package fumen

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Dump はフーメンの内容を検証用にYAMLで書き出す
func (c *Chart) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "encode fumen dump")
	}
	return errors.Wrap(enc.Close(), "close fumen dump")
}

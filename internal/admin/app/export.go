package app

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// Export writes the store to w as a YAML seed file.
func (app *Application) Export(ctx context.Context, w io.Writer) error {
	doc, err := app.director.Export(slogx.WithContext(ctx, app.logger))
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
